package components

import (
	"log/slog"

	"hotel-booking/internal/infra/memstore"
	"hotel-booking/internal/usecase/commands"
	"hotel-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

// MemoryPersistenceModule replaces Postgres with process-local stores (STORE_DRIVER=memory).
var MemoryPersistenceModule = fx.Module("persistence/memory",
	fx.Provide(
		fx.Annotate(
			NewDemoUserStore,
			fx.As(new(commands.UserStore)),
		),
		fx.Annotate(
			NewDemoRoomStore,
			fx.As(new(commands.RoomStore)),
		),
		fx.Annotate(
			memstore.NewReservationStore,
			fx.As(new(commands.ReservationStore)),
			fx.As(new(queries.ReservationReader)),
		),
	),
)

// Demo catalogue; the account and catalog services own these rows in production.
func NewDemoUserStore(logger *slog.Logger) *memstore.UserStore {
	return memstore.NewUserStore(logger,
		commands.UserSnapshot{ID: 1, Email: "guest@example.com"},
		commands.UserSnapshot{ID: 2, Email: "manager@example.com"},
	)
}

func NewDemoRoomStore(logger *slog.Logger) *memstore.RoomStore {
	return memstore.NewRoomStore(logger,
		commands.RoomSnapshot{ID: 1, HotelID: 1, Name: "Standard Double"},
		commands.RoomSnapshot{ID: 2, HotelID: 1, Name: "Deluxe King"},
		commands.RoomSnapshot{ID: 3, HotelID: 1, Name: "Family Suite"},
	)
}
