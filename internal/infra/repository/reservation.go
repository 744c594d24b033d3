package repository

import (
	"context"
	"log/slog"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/infra"
	"hotel-booking/internal/pkg/pgconv"
	"hotel-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationQueries interface {
	GetReservationByID(ctx context.Context, db DBTX, id uuid.UUID) (Reservations, error)
	GetReservationsByUserAndRoom(ctx context.Context, db DBTX, userID, roomID int64) ([]Reservations, error)
	GetReservationsByUserIDFirstPage(ctx context.Context, db DBTX, arg GetReservationsByUserIDFirstPageParams) ([]Reservations, error)
	GetReservationsByUserIDKeyset(ctx context.Context, db DBTX, arg GetReservationsByUserIDKeysetParams) ([]Reservations, error)
	ExistsOverlappingReservation(ctx context.Context, db DBTX, arg ExistsOverlappingReservationParams) (bool, error)
	CreateReservation(ctx context.Context, db DBTX, arg CreateReservationParams) error
	UpdateReservation(ctx context.Context, db DBTX, arg UpdateReservationParams) (int64, error)
	ExistsReservation(ctx context.Context, db DBTX, id uuid.UUID) (bool, error)
	DeleteReservation(ctx context.Context, db DBTX, id uuid.UUID) (int64, error)
}

// ReservationRepository serves both the write side (commands.ReservationStore) and the read side
// (queries.ReservationReader). Overlap races are settled by the reservations_room_no_overlap
// exclusion constraint.
type ReservationRepository struct {
	queries ReservationQueries
	db      DBTX
	logger  *slog.Logger
}

func NewReservationRepository(queries *Queries, db DBTX, logger *slog.Logger) *ReservationRepository {
	return &ReservationRepository{
		queries: queries,
		db:      db,
		logger:  logger,
	}
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row, err := r.queries.GetReservationByID(ctx, r.db, id)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "reservation not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find reservation by ID", err)
	}

	res, err := reservationFromRow(row)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode reservation", err)
	}
	return res, nil
}

func (r *ReservationRepository) FindByUserAndRoom(ctx context.Context, userID, roomID int64) ([]*reservation.Reservation, error) {
	rows, err := r.queries.GetReservationsByUserAndRoom(ctx, r.db, userID, roomID)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find reservations by user and room", err)
	}

	out, err := reservationsFromRows(rows)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode reservations", err)
	}
	return out, nil
}

func (r *ReservationRepository) FindByUser(ctx context.Context, userID int64, after *queries.Position, limit int) ([]*reservation.Reservation, error) {
	var (
		rows []Reservations
		err  error
	)
	if after == nil {
		rows, err = r.queries.GetReservationsByUserIDFirstPage(ctx, r.db, GetReservationsByUserIDFirstPageParams{
			UserID: userID,
			Limit:  int32(limit),
		})
	} else {
		rows, err = r.queries.GetReservationsByUserIDKeyset(ctx, r.db, GetReservationsByUserIDKeysetParams{
			UserID:   userID,
			BookDate: pgconv.TimeToPgtype(after.BookedAt),
			ID:       after.ID,
			Limit:    int32(limit),
		})
	}
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list reservations by user", err)
	}

	out, err := reservationsFromRows(rows)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode reservations", err)
	}
	return out, nil
}

func (r *ReservationRepository) IsOverlapping(ctx context.Context, roomID int64, userID *int64, period reservation.StayPeriod) (bool, error) {
	exists, err := r.queries.ExistsOverlappingReservation(ctx, r.db, ExistsOverlappingReservationParams{
		RoomID:    roomID,
		UserID:    pgconv.Int8PtrToPgtype(userID),
		StartDate: pgconv.DateToPgtype(period.Start()),
		EndDate:   pgconv.DateToPgtype(period.End()),
	})
	if err != nil {
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to check overlapping reservations", err)
	}
	return exists, nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	err := r.queries.CreateReservation(ctx, r.db, reservationToCreateParams(res))
	if err != nil {
		if pgconv.IsConstraintViolation(err, pgconv.CodeExclusionViolation, pgconv.CodeUniqueViolation) {
			return infra.WrapRepoErr(r.logger, infra.KindConflict, "reservation conflicts with an existing row", err)
		}
		if pgconv.IsConstraintViolation(err, pgconv.CodeForeignKeyViolation) {
			return infra.WrapRepoErr(r.logger, infra.KindNotFound, "reservation references a missing user or room", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create reservation", err)
	}
	return nil
}

// Update writes the mutable columns if the stored version still matches res; res's version is
// bumped on success.
func (r *ReservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	affected, err := r.queries.UpdateReservation(ctx, r.db, reservationToUpdateParams(res))
	if err != nil {
		if pgconv.IsConstraintViolation(err, pgconv.CodeExclusionViolation, pgconv.CodeUniqueViolation) {
			return infra.WrapRepoErr(r.logger, infra.KindConflict, "reservation update conflicts with an existing row", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update reservation", err)
	}

	if affected == 0 {
		exists, err := r.queries.ExistsReservation(ctx, r.db, res.ID())
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to check reservation existence", err)
		}
		if !exists {
			return infra.WrapRepoErr(r.logger, infra.KindNotFound, "reservation not found", nil)
		}
		return infra.WrapRepoErr(r.logger, infra.KindStaleVersion, "reservation was modified concurrently", nil)
	}

	res.BumpVersion()
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.queries.DeleteReservation(ctx, r.db, id)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to delete reservation", err)
	}
	if affected == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "reservation not found", nil)
	}
	return nil
}
