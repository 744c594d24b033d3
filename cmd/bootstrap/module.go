package bootstrap

import (
	"hotel-booking/cmd/bootstrap/components"
	"hotel-booking/internal/pkg/config"

	"go.uber.org/fx"
)

const driverMemory = "memory"

// NewModule assembles the application graph; the store driver picks the persistence wiring.
func NewModule(cfg config.Config) fx.Option {
	persistence := fx.Options(DBModule, components.PersistenceModule)
	if cfg.Store.Driver == driverMemory {
		persistence = components.MemoryPersistenceModule
	}

	return fx.Options(
		ConfigModule(cfg),
		LoggerModule,
		JWTModule,
		persistence,
		components.IntegrationModule,
		components.UseCaseModule,
		components.HandlerModule,
	)
}
