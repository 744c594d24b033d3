package components

import (
	"context"
	"log/slog"

	"hotel-booking/internal/infra/broker"
	"hotel-booking/internal/infra/lock"
	"hotel-booking/internal/infra/payment"
	"hotel-booking/internal/pkg/config"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/internal/usecase/commands"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// IntegrationModule wires the outbound adapters: payment gateway, room locks, event broker.
var IntegrationModule = fx.Module("integration",
	fx.Provide(
		payment.NewStripeClient,
		fx.Annotate(
			payment.NewStripeGateway,
			fx.As(new(commands.PaymentGateway)),
		),
		NewLocker,
		NewEventPublisher,
	),
)

// NewLocker uses Redis when REDIS_ADDR is set, otherwise an in-process lock table.
func NewLocker(lc fx.Lifecycle, cfg config.RedisConfig, logger *slog.Logger) commands.Locker {
	if !cfg.Enabled() {
		logger.Info("REDIS_ADDR not set, using in-process room locks")
		return lock.NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return errs.Wrapf(err, "ping redis at %s", cfg.Addr)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	return lock.NewRedisLocker(client, cfg, logger)
}

// NewEventPublisher uses AMQP when AMQP_URL is set, otherwise events are only logged.
func NewEventPublisher(lc fx.Lifecycle, cfg config.AMQPConfig, logger *slog.Logger) commands.ReservationEventPublisher {
	if !cfg.Enabled() {
		logger.Info("AMQP_URL not set, reservation events are logged only")
		return broker.NewLogPublisher(logger)
	}

	publisher := broker.NewAMQPPublisher(cfg, logger)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return publisher.Connect()
		},
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}
