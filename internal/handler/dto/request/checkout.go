package request

import (
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/internal/usecase/commands"
)

// Dates are calendar days ("2026-10-19"); full RFC3339 timestamps are accepted and truncated.
type CreatePaymentIntentRequest struct {
	RoomID    int64   `json:"roomId" binding:"required,gt=0"`
	StartDate string  `json:"startDate" binding:"required"`
	EndDate   string  `json:"endDate" binding:"required"`
	BookPrice float64 `json:"bookPrice" binding:"required"`
}

func (r CreatePaymentIntentRequest) ToInput(idempotencyKey string) (commands.CreateIntentInput, error) {
	start, err := parseDay(r.StartDate)
	if err != nil {
		return commands.CreateIntentInput{}, errs.Wrapf(commands.ErrInvalidDateRange, "startDate %q", r.StartDate)
	}
	end, err := parseDay(r.EndDate)
	if err != nil {
		return commands.CreateIntentInput{}, errs.Wrapf(commands.ErrInvalidDateRange, "endDate %q", r.EndDate)
	}
	price, err := reservation.NewMoneyFromFloat(r.BookPrice)
	if err != nil {
		return commands.CreateIntentInput{}, errs.Wrap(commands.ErrInvalidPrice, err.Error())
	}

	return commands.CreateIntentInput{
		RoomID:         r.RoomID,
		StartDate:      start,
		EndDate:        end,
		BookPrice:      price,
		IdempotencyKey: idempotencyKey,
	}, nil
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(reservation.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return reservation.DateOf(t), nil
}
