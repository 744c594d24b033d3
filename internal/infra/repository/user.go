package repository

import (
	"context"
	"log/slog"

	"hotel-booking/internal/infra"
	"hotel-booking/internal/pkg/pgconv"
	"hotel-booking/internal/usecase/commands"
)

type UserQueries interface {
	FindUserByID(ctx context.Context, db DBTX, id int64) (Users, error)
}

type UserRepository struct {
	queries UserQueries
	db      DBTX
	logger  *slog.Logger
}

func NewUserRepository(queries *Queries, db DBTX, logger *slog.Logger) *UserRepository {
	return &UserRepository{
		queries: queries,
		db:      db,
		logger:  logger,
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*commands.UserSnapshot, error) {
	row, err := r.queries.FindUserByID(ctx, r.db, id)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "user not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find user by ID", err)
	}

	return &commands.UserSnapshot{ID: row.ID, Email: row.Email}, nil
}

type RoomQueries interface {
	FindRoomByID(ctx context.Context, db DBTX, id int64) (Rooms, error)
}

type RoomRepository struct {
	queries RoomQueries
	db      DBTX
	logger  *slog.Logger
}

func NewRoomRepository(queries *Queries, db DBTX, logger *slog.Logger) *RoomRepository {
	return &RoomRepository{
		queries: queries,
		db:      db,
		logger:  logger,
	}
}

func (r *RoomRepository) FindByID(ctx context.Context, id int64) (*commands.RoomSnapshot, error) {
	row, err := r.queries.FindRoomByID(ctx, r.db, id)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "room not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find room by ID", err)
	}

	return &commands.RoomSnapshot{ID: row.ID, HotelID: row.HotelID, Name: row.Name}, nil
}
