package commands

//go:generate mockgen -source=ports.go -destination=../../../tests/mock/commands/ports_mock.go -package=commandsmock

import (
	"context"
	"strconv"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// Write-side snapshots of collaborators owned by the catalog and account services.
type UserSnapshot struct {
	ID    int64
	Email string
}

type RoomSnapshot struct {
	ID      int64
	HotelID int64
	Name    string
}

type UserStore interface {
	FindByID(ctx context.Context, id int64) (*UserSnapshot, error)
}

type RoomStore interface {
	FindByID(ctx context.Context, id int64) (*RoomSnapshot, error)
}

// ReservationStore persists reservations. Lookups of missing rows return infra.KindNotFound;
// Create returns infra.KindConflict when an active overlapping row already exists;
// Update is an optimistic write keyed on Version and returns infra.KindStaleVersion when it loses.
type ReservationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	FindByUserAndRoom(ctx context.Context, userID, roomID int64) ([]*reservation.Reservation, error)
	// IsOverlapping checks active reservations of roomID, optionally narrowed to one user.
	IsOverlapping(ctx context.Context, roomID int64, userID *int64, period reservation.StayPeriod) (bool, error)
	Create(ctx context.Context, r *reservation.Reservation) error
	Update(ctx context.Context, r *reservation.Reservation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Locker serialises work on a key across goroutines (and nodes, for distributed implementations).
// Callers must invoke the returned func to release the key.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

func roomLockKey(roomID int64) string {
	return "room:" + strconv.FormatInt(roomID, 10)
}

func reservationLockKey(id uuid.UUID) string {
	return "reservation:" + id.String()
}

type CreateIntentRequest struct {
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
	// DisallowRedirects keeps automatic payment methods to those confirmable without a redirect.
	DisallowRedirects bool
	IdempotencyKey    string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*PaymentIntent, error)
	UpdateIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error
	// VerifyAndParseEvent returns errors marked with ErrSignatureInvalid or ErrMalformedEvent.
	VerifyAndParseEvent(payload []byte, signature, secret string) (PaymentEvent, error)
}

type PaymentEventType string

const (
	EventIntentCreated       PaymentEventType = "payment_intent.created"
	EventIntentSucceeded     PaymentEventType = "payment_intent.succeeded"
	EventIntentPaymentFailed PaymentEventType = "payment_intent.payment_failed"
	EventChargeSucceeded     PaymentEventType = "charge.succeeded"
	EventChargeUpdated       PaymentEventType = "charge.updated"
)

func (t PaymentEventType) isIntentEvent() bool {
	switch t {
	case EventIntentCreated, EventIntentSucceeded, EventIntentPaymentFailed:
		return true
	default:
		return false
	}
}

// PaymentEvent is the decoded gateway notification. Intent events always carry IntentID;
// charge events carry the intent the charge belongs to, when known.
type PaymentEvent struct {
	ID       string
	Type     PaymentEventType
	IntentID string
	Metadata map[string]string
}

func (e PaymentEvent) Validate() error {
	if e.Type == "" {
		return errs.Wrap(ErrMalformedEvent, "event type is missing")
	}
	if e.Type.isIntentEvent() && e.IntentID == "" {
		return errs.Wrapf(ErrMalformedEvent, "%s event has no payment intent", e.Type)
	}
	return nil
}

type ReservationEventType string

const (
	ReservationCreated       ReservationEventType = "reservation.created"
	ReservationConfirmed     ReservationEventType = "reservation.confirmed"
	ReservationPaymentFailed ReservationEventType = "reservation.payment_failed"
	ReservationCancelled     ReservationEventType = "reservation.cancelled"
)

type ReservationEvent struct {
	Type          ReservationEventType `json:"type"`
	ReservationID uuid.UUID            `json:"reservationId"`
	UserID        int64                `json:"userId"`
	RoomID        int64                `json:"roomId"`
	StartDate     string               `json:"startDate"`
	EndDate       string               `json:"endDate"`
	BookPrice     string               `json:"bookPrice"`
	PaymentStatus string               `json:"paymentStatus"`
	BookingStatus string               `json:"bookingStatus"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

func newReservationEvent(t ReservationEventType, r *reservation.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          t,
		ReservationID: r.ID(),
		UserID:        r.UserID(),
		RoomID:        r.RoomID(),
		StartDate:     r.Period().Start().Format(reservation.DateLayout),
		EndDate:       r.Period().End().Format(reservation.DateLayout),
		BookPrice:     r.Price().String(),
		PaymentStatus: r.PaymentStatus().String(),
		BookingStatus: r.BookingStatus().String(),
		OccurredAt:    at,
	}
}

func transitionEventType(t reservation.Transition) ReservationEventType {
	switch t {
	case reservation.MarkPaid:
		return ReservationConfirmed
	case reservation.MarkFailed:
		return ReservationPaymentFailed
	default:
		return ReservationCancelled
	}
}

type ReservationEventPublisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
}
