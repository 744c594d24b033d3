package components

import (
	"hotel-booking/internal/infra/repository"
	"hotel-booking/internal/usecase/commands"
	"hotel-booking/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	repositoryModule,
)

var baseOption = fx.Provide(
	NewSQLQueries,
	NewDBTX,
)

var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		// User
		fx.Annotate(
			repository.NewUserRepository,
			fx.As(new(commands.UserStore)),
		),
		// Room
		fx.Annotate(
			repository.NewRoomRepository,
			fx.As(new(commands.RoomStore)),
		),
		// Reservation: one repository serves both the write and the read side
		fx.Annotate(
			repository.NewReservationRepository,
			fx.As(new(commands.ReservationStore)),
			fx.As(new(queries.ReservationReader)),
		),
	),
)

func NewSQLQueries(_ *pgxpool.Pool) *repository.Queries {
	return repository.NewQueries()
}

func NewDBTX(pool *pgxpool.Pool) repository.DBTX {
	return pool
}
