package queries

//go:generate mockgen -source=reservation.go -destination=../../../tests/mock/queries/reservation_mock.go -package=queriesmock

import (
	"context"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/domain/user"
	"hotel-booking/internal/infra"
	"hotel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrReservationNotFound     = errs.New("reservation not found")
	ErrReservationAccessDenied = errs.New("reservation access denied")
)

// Read models (DTO for read side)
type ReservationView struct {
	ID              uuid.UUID `json:"id"`
	UserID          int64     `json:"user_id"`
	RoomID          int64     `json:"room_id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	BookPriceCents  int64     `json:"book_price_cents"`
	BookDate        time.Time `json:"book_date"`
	PaymentStatus   string    `json:"payment_status"`
	BookingStatus   string    `json:"booking_status"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Actor struct {
	ID   int64
	Role user.Role
}

type ReservationQueries interface {
	GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*ReservationView, error)
	ListByUser(ctx context.Context, userID int64, after *Cursor, limit int) ([]*ReservationView, *Cursor, error)
}

// ReservationReader is satisfied by the same stores that back the write side.
type ReservationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	FindByUser(ctx context.Context, userID int64, after *Position, limit int) ([]*reservation.Reservation, error)
}

type reservationQueriesImpl struct {
	reader ReservationReader
}

func NewReservationQueries(reader ReservationReader) ReservationQueries {
	return &reservationQueriesImpl{reader: reader}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*ReservationView, error) {
	r, err := q.reader.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	if r.UserID() != actor.ID && !actor.Role.CanViewAnyReservation() {
		return nil, ErrReservationAccessDenied
	}

	return NewReservationView(r), nil
}

func (q *reservationQueriesImpl) ListByUser(ctx context.Context, userID int64, after *Cursor, limit int) ([]*ReservationView, *Cursor, error) {
	limit = ValidateLimit(limit)

	var pos *Position
	if after != nil && after.After != "" {
		p, err := DecodeAfterCursor(after.After)
		if err != nil {
			return nil, nil, err
		}
		pos = &p
	}

	// One extra row tells us whether another page exists.
	rows, err := q.reader.FindByUser(ctx, userID, pos, limit+1)
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		next = &Cursor{After: EncodeAfterCursor(last.BookedAt(), last.ID())}
	}

	views := make([]*ReservationView, 0, len(rows))
	for _, r := range rows {
		views = append(views, NewReservationView(r))
	}
	return views, next, nil
}

func NewReservationView(r *reservation.Reservation) *ReservationView {
	return &ReservationView{
		ID:              r.ID(),
		UserID:          r.UserID(),
		RoomID:          r.RoomID(),
		StartDate:       r.Period().Start(),
		EndDate:         r.Period().End(),
		BookPriceCents:  r.Price().Cents(),
		BookDate:        r.BookedAt(),
		PaymentStatus:   r.PaymentStatus().String(),
		BookingStatus:   r.BookingStatus().String(),
		PaymentIntentID: r.PaymentIntentID(),
		UpdatedAt:       r.UpdatedAt(),
	}
}
