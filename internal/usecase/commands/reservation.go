package commands

//go:generate mockgen -source=reservation.go -destination=../../../tests/mock/commands/reservation_mock.go -package=commandsmock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/infra"
	"hotel-booking/internal/pkg/clock"
	"hotel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

type CreateReservationInput struct {
	RoomID    int64
	StartDate time.Time
	EndDate   time.Time
	BookPrice reservation.Money
	// PaymentIntentID links the row to the intent whose webhook created it.
	PaymentIntentID string
}

type ReservationCommands interface {
	ValidateAndCreate(ctx context.Context, in CreateReservationInput, userID int64) (*reservation.Reservation, error)
	// Transition reports false with a nil error when the reservation does not exist.
	Transition(ctx context.Context, reservationID uuid.UUID, t reservation.Transition) (bool, error)
	CancelReservation(ctx context.Context, reservationID uuid.UUID, userID int64) error
}

type reservationLifecycle struct {
	users        UserStore
	rooms        RoomStore
	reservations ReservationStore
	locker       Locker
	events       ReservationEventPublisher
	clock        clock.Clock
	logger       *slog.Logger
}

func NewReservationLifecycle(
	users UserStore,
	rooms RoomStore,
	reservations ReservationStore,
	locker Locker,
	events ReservationEventPublisher,
	clk clock.Clock,
	logger *slog.Logger,
) ReservationCommands {
	return &reservationLifecycle{
		users:        users,
		rooms:        rooms,
		reservations: reservations,
		locker:       locker,
		events:       events,
		clock:        clk,
		logger:       logger,
	}
}

// validateRequest runs the checks that need no storage: dates first, then price.
func validateRequest(now, startDate, endDate time.Time, price reservation.Money) (reservation.StayPeriod, error) {
	today := reservation.DateOf(now)
	start := reservation.DateOf(startDate)
	end := reservation.DateOf(endDate)

	if start.Before(today) {
		return reservation.StayPeriod{}, errs.Wrapf(ErrInvalidDateRange,
			"start date %s is before today %s", start.Format(reservation.DateLayout), today.Format(reservation.DateLayout))
	}
	period, err := reservation.NewStayPeriod(start, end)
	if err != nil {
		return reservation.StayPeriod{}, errs.Wrapf(ErrInvalidDateRange,
			"end date %s is before start date %s", end.Format(reservation.DateLayout), start.Format(reservation.DateLayout))
	}
	if !price.IsPositive() {
		return reservation.StayPeriod{}, errs.Wrapf(ErrInvalidPrice, "got %s", price)
	}
	return period, nil
}

func (uc *reservationLifecycle) ValidateAndCreate(
	ctx context.Context,
	in CreateReservationInput,
	userID int64,
) (*reservation.Reservation, error) {
	now := uc.clock.Now()

	period, err := validateRequest(now, in.StartDate, in.EndDate, in.BookPrice)
	if err != nil {
		return nil, err
	}

	if err := uc.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := uc.ensureRoom(ctx, in.RoomID); err != nil {
		return nil, err
	}

	res, err := uc.insert(ctx, in, userID, period, now)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("reservation created",
		slog.String("reservation_id", res.ID().String()),
		slog.Int64("user_id", userID),
		slog.Int64("room_id", in.RoomID),
		slog.String("period", period.String()),
	)
	uc.publish(ctx, ReservationCreated, res)

	return res, nil
}

// insert runs the overlap checks and the write under the room lock.
func (uc *reservationLifecycle) insert(
	ctx context.Context,
	in CreateReservationInput,
	userID int64,
	period reservation.StayPeriod,
	now time.Time,
) (*reservation.Reservation, error) {
	unlock, err := uc.locker.Lock(ctx, roomLockKey(in.RoomID))
	if err != nil {
		return nil, errs.Wrapf(err, "lock room %d", in.RoomID)
	}
	defer unlock()

	overlapping, err := uc.reservations.IsOverlapping(ctx, in.RoomID, &userID, period)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if overlapping {
		return nil, conflict(errs.Wrapf(ErrUserOverlap, "user %d, room %d, %s", userID, in.RoomID, period))
	}

	overlapping, err = uc.reservations.IsOverlapping(ctx, in.RoomID, nil, period)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if overlapping {
		return nil, conflict(errs.Wrapf(ErrRoomOverlap, "room %d, %s", in.RoomID, period))
	}

	res, err := reservation.NewReservation(userID, in.RoomID, period, in.BookPrice, in.PaymentIntentID, now)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidDateRange)
	}

	if err := uc.reservations.Create(ctx, res); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return nil, conflict(errs.Wrapf(ErrRaceLost, "room %d, %s", in.RoomID, period))
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return res, nil
}

func (uc *reservationLifecycle) Transition(
	ctx context.Context,
	reservationID uuid.UUID,
	t reservation.Transition,
) (bool, error) {
	if _, ok := t.Target(); !ok {
		return false, errs.Wrapf(ErrInvalidTransition, "%q", t)
	}

	next, ok, err := uc.apply(ctx, reservationID, t)
	if err != nil || next == nil {
		return ok, err
	}

	uc.publish(ctx, transitionEventType(t), next)
	return true, nil
}

// apply updates the reservation under its lock. A non-nil result means the state changed.
func (uc *reservationLifecycle) apply(
	ctx context.Context,
	reservationID uuid.UUID,
	t reservation.Transition,
) (*reservation.Reservation, bool, error) {
	unlock, err := uc.locker.Lock(ctx, reservationLockKey(reservationID))
	if err != nil {
		return nil, false, errs.Wrapf(err, "lock reservation %s", reservationID)
	}
	defer unlock()

	// The lock serialises this process; the version check covers writers that bypass it.
	for attempt := 0; ; attempt++ {
		current, err := uc.reservations.FindByID(ctx, reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, false, nil
			}
			return nil, false, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		next := current.Clone()
		changed, err := next.Apply(t, uc.clock.Now())
		if err != nil {
			if errors.Is(err, reservation.ErrStateViolation) {
				return nil, false, conflict(errs.Wrapf(ErrStateViolation,
					"cannot %s reservation %s in state %s", t, reservationID, current.State()))
			}
			return nil, false, err
		}
		if !changed {
			return nil, true, nil
		}

		err = uc.reservations.Update(ctx, next)
		switch {
		case err == nil:
			uc.logger.Info("reservation transitioned",
				slog.String("reservation_id", reservationID.String()),
				slog.String("transition", t.String()),
				slog.String("from", current.State().String()),
				slog.String("to", next.State().String()),
			)
			return next, true, nil
		case infra.IsKind(err, infra.KindStaleVersion) && attempt == 0:
			continue
		case infra.IsKind(err, infra.KindNotFound):
			return nil, false, nil
		default:
			return nil, false, errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}
}

func (uc *reservationLifecycle) CancelReservation(ctx context.Context, reservationID uuid.UUID, userID int64) error {
	current, err := uc.reservations.FindByID(ctx, reservationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return notFound(errs.Wrapf(ErrReservationNotFound, "%s", reservationID))
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if current.UserID() != userID {
		return errs.Wrapf(ErrNotOwner, "reservation %s", reservationID)
	}

	ok, err := uc.Transition(ctx, reservationID, reservation.MarkCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(errs.Wrapf(ErrReservationNotFound, "%s", reservationID))
	}
	return nil
}

func (uc *reservationLifecycle) ensureUser(ctx context.Context, userID int64) error {
	if _, err := uc.users.FindByID(ctx, userID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return notFound(errs.Wrapf(ErrUserNotFound, "user %d", userID))
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

func (uc *reservationLifecycle) ensureRoom(ctx context.Context, roomID int64) error {
	if _, err := uc.rooms.FindByID(ctx, roomID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return notFound(errs.Wrapf(ErrRoomNotFound, "room %d", roomID))
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

// publish is best effort: the reservation is already committed.
func (uc *reservationLifecycle) publish(ctx context.Context, t ReservationEventType, r *reservation.Reservation) {
	event := newReservationEvent(t, r, uc.clock.Now())
	if err := uc.events.Publish(ctx, event); err != nil {
		uc.logger.Warn("failed to publish reservation event",
			slog.String("type", string(t)),
			slog.String("reservation_id", r.ID().String()),
			slog.String("error", err.Error()),
		)
	}
}
