//go:build unit || e2e

package builder

import (
	"time"

	"hotel-booking/internal/domain/reservation"
	reqdto "hotel-booking/internal/handler/dto/request"
	"hotel-booking/internal/usecase/commands"
	"hotel-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

// Today is the fixed "now" used by unit tests.
var Today = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type ReservationBuilder struct {
	UserID          int64
	RoomID          int64
	StartDate       time.Time
	EndDate         time.Time
	PriceCents      int64
	PaymentIntentID string
	Now             time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	tomorrow := reservation.DateOf(Today).AddDate(0, 0, 1)
	return &ReservationBuilder{
		UserID:          1,
		RoomID:          7,
		StartDate:       tomorrow,
		EndDate:         tomorrow.AddDate(0, 0, 2),
		PriceCents:      15000,
		PaymentIntentID: "pi_test_1",
		Now:             Today,
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

func (b *ReservationBuilder) WithUserID(id int64) *ReservationBuilder {
	b.UserID = id
	return b
}

func (b *ReservationBuilder) WithRoomID(id int64) *ReservationBuilder {
	b.RoomID = id
	return b
}

// WithDays sets the stay relative to Today: offsets are in days.
func (b *ReservationBuilder) WithDays(startOffset, endOffset int) *ReservationBuilder {
	today := reservation.DateOf(Today)
	b.StartDate = today.AddDate(0, 0, startOffset)
	b.EndDate = today.AddDate(0, 0, endOffset)
	return b
}

func (b *ReservationBuilder) WithPriceCents(cents int64) *ReservationBuilder {
	b.PriceCents = cents
	return b
}

func (b *ReservationBuilder) WithPaymentIntentID(id string) *ReservationBuilder {
	b.PaymentIntentID = id
	return b
}

func (b *ReservationBuilder) Period() reservation.StayPeriod {
	p, err := reservation.NewStayPeriod(b.StartDate, b.EndDate)
	if err != nil {
		panic(err)
	}
	return p
}

func (b *ReservationBuilder) BuildDomain() (*reservation.Reservation, error) {
	period, err := reservation.NewStayPeriod(b.StartDate, b.EndDate)
	if err != nil {
		return nil, err
	}
	return reservation.NewReservation(b.UserID, b.RoomID, period, reservation.NewMoney(b.PriceCents), b.PaymentIntentID, b.Now)
}

func (b *ReservationBuilder) MustBuildDomain() *reservation.Reservation {
	r, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	return r
}

// BuildInState reconstructs a persisted reservation in the given state.
func (b *ReservationBuilder) BuildInState(state reservation.State) *reservation.Reservation {
	return reservation.ReconstructReservation(
		uuid.New(), b.UserID, b.RoomID, b.Period(), reservation.NewMoney(b.PriceCents),
		b.Now, state, b.PaymentIntentID, 1, b.Now,
	)
}

func (b *ReservationBuilder) BuildCreateInput() commands.CreateReservationInput {
	return commands.CreateReservationInput{
		RoomID:          b.RoomID,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		BookPrice:       reservation.NewMoney(b.PriceCents),
		PaymentIntentID: b.PaymentIntentID,
	}
}

func (b *ReservationBuilder) BuildIntentInput() commands.CreateIntentInput {
	return commands.CreateIntentInput{
		RoomID:    b.RoomID,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		BookPrice: reservation.NewMoney(b.PriceCents),
	}
}

func (b *ReservationBuilder) BuildPaymentIntentRequestDTO() reqdto.CreatePaymentIntentRequest {
	return reqdto.CreatePaymentIntentRequest{
		RoomID:    b.RoomID,
		StartDate: b.StartDate.Format(reservation.DateLayout),
		EndDate:   b.EndDate.Format(reservation.DateLayout),
		BookPrice: float64(b.PriceCents) / 100,
	}
}

func (b *ReservationBuilder) BuildView() *queries.ReservationView {
	return &queries.ReservationView{
		ID:              uuid.New(),
		UserID:          b.UserID,
		RoomID:          b.RoomID,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		BookPriceCents:  b.PriceCents,
		BookDate:        b.Now,
		PaymentStatus:   string(reservation.PaymentPending),
		BookingStatus:   string(reservation.BookingPending),
		PaymentIntentID: b.PaymentIntentID,
		UpdatedAt:       b.Now,
	}
}
