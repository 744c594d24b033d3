package bootstrap

import (
	"hotel-booking/internal/pkg/config"

	"go.uber.org/fx"
)

// ConfigModule supplies the loaded config plus the sections constructors take directly.
func ConfigModule(cfg config.Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
		fx.Provide(
			func(c config.Config) config.PaymentConfig { return c.Payment },
			func(c config.Config) config.RedisConfig { return c.Redis },
			func(c config.Config) config.AMQPConfig { return c.AMQP },
		),
	)
}
