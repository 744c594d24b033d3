package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidStayPeriod = errors.New("end date must not be before start date")
	ErrStartInPast       = errors.New("start date cannot be in the past")
	ErrNonPositivePrice  = errors.New("price must be greater than zero")
	ErrInvalidTransition = errors.New("unknown reservation transition")
	ErrStateViolation    = errors.New("reservation is already in a different final state")
)

type Reservation struct {
	id              uuid.UUID
	userID          int64
	roomID          int64
	period          StayPeriod
	price           Money
	bookedAt        time.Time
	state           State
	paymentIntentID string
	version         int
	updatedAt       time.Time
}

// NewReservation builds a Pending/Pending reservation booked at now.
func NewReservation(
	userID, roomID int64,
	period StayPeriod,
	price Money,
	paymentIntentID string,
	now time.Time,
) (*Reservation, error) {
	if period.StartsBefore(now) {
		return nil, ErrStartInPast
	}
	if !price.IsPositive() {
		return nil, ErrNonPositivePrice
	}

	return &Reservation{
		id:              uuid.New(),
		userID:          userID,
		roomID:          roomID,
		period:          period,
		price:           price,
		bookedAt:        now,
		state:           StatePending,
		paymentIntentID: paymentIntentID,
		version:         1,
		updatedAt:       now,
	}, nil
}

func ReconstructReservation(
	id uuid.UUID,
	userID, roomID int64,
	period StayPeriod,
	price Money,
	bookedAt time.Time,
	state State,
	paymentIntentID string,
	version int,
	updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:              id,
		userID:          userID,
		roomID:          roomID,
		period:          period,
		price:           price,
		bookedAt:        bookedAt,
		state:           state,
		paymentIntentID: paymentIntentID,
		version:         version,
		updatedAt:       updatedAt,
	}
}

// Apply moves the reservation along the payment state machine.
//
//	Pending/Pending --MarkPaid-->      Completed/Confirmed
//	Pending/Pending --MarkFailed-->    Failed/Cancelled
//	Pending/Pending --MarkCancelled--> Canceled/Cancelled
//
// Re-applying the transition that produced the current state is a no-op (changed=false).
// Anything else leaves the reservation untouched and returns ErrStateViolation.
func (r *Reservation) Apply(t Transition, now time.Time) (bool, error) {
	target, ok := t.Target()
	if !ok {
		return false, ErrInvalidTransition
	}
	if r.state == target {
		return false, nil
	}
	if r.state != StatePending {
		return false, ErrStateViolation
	}

	r.state = target
	r.updatedAt = now
	return true, nil
}

// Clone returns a copy that can be mutated without affecting r.
func (r *Reservation) Clone() *Reservation {
	c := *r
	return &c
}

// BumpVersion is called by stores after a successful update.
func (r *Reservation) BumpVersion() {
	r.version++
}

func (r *Reservation) IsActive() bool {
	return r.state.Booking != BookingCancelled
}

func (r *Reservation) IsPending() bool {
	return r.state == StatePending
}

func (r *Reservation) ID() uuid.UUID                { return r.id }
func (r *Reservation) UserID() int64                { return r.userID }
func (r *Reservation) RoomID() int64                { return r.roomID }
func (r *Reservation) Period() StayPeriod           { return r.period }
func (r *Reservation) Price() Money                 { return r.price }
func (r *Reservation) BookedAt() time.Time          { return r.bookedAt }
func (r *Reservation) State() State                 { return r.state }
func (r *Reservation) PaymentStatus() PaymentStatus { return r.state.Payment }
func (r *Reservation) BookingStatus() BookingStatus { return r.state.Booking }
func (r *Reservation) PaymentIntentID() string      { return r.paymentIntentID }
func (r *Reservation) Version() int                 { return r.version }
func (r *Reservation) UpdatedAt() time.Time         { return r.updatedAt }
