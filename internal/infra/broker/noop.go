package broker

import (
	"context"
	"log/slog"

	"hotel-booking/internal/usecase/commands"
)

// LogPublisher is used when no broker is configured; events only reach the log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event commands.ReservationEvent) error {
	p.logger.Debug("reservation event",
		slog.String("type", string(event.Type)),
		slog.String("reservation_id", event.ReservationID.String()),
		slog.String("payment_status", event.PaymentStatus),
		slog.String("booking_status", event.BookingStatus),
	)
	return nil
}
