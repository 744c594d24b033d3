package commands

//go:generate mockgen -source=payment.go -destination=../../../tests/mock/commands/payment_mock.go -package=commandsmock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/infra"
	"hotel-booking/internal/pkg/clock"
	"hotel-booking/internal/pkg/config"
	"hotel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

type CreateIntentInput struct {
	RoomID         int64
	StartDate      time.Time
	EndDate        time.Time
	BookPrice      reservation.Money
	IdempotencyKey string
}

type OutcomeKind string

const (
	OutcomeApplied      OutcomeKind = "applied"
	OutcomeDuplicate    OutcomeKind = "duplicate"
	OutcomeAcknowledged OutcomeKind = "acknowledged"
	OutcomeRejected     OutcomeKind = "rejected"
	OutcomeNotFound     OutcomeKind = "not_found"
	OutcomeMalformed    OutcomeKind = "malformed"
	OutcomeFailed       OutcomeKind = "payment_failed"
	OutcomeUnhandled    OutcomeKind = "unhandled"
)

// EventOutcome is the acknowledgement for one gateway event. Accepted=false is a handled
// rejection, never an infrastructure failure.
type EventOutcome struct {
	Accepted bool
	Message  string
	Kind     OutcomeKind
}

func accepted(kind OutcomeKind, format string, args ...any) EventOutcome {
	return EventOutcome{Accepted: true, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func rejected(kind OutcomeKind, format string, args ...any) EventOutcome {
	return EventOutcome{Accepted: false, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

type PaymentCommands interface {
	CreateIntent(ctx context.Context, in CreateIntentInput, userID int64) (string, error)
	HandleEvent(ctx context.Context, event PaymentEvent) (EventOutcome, error)
}

type paymentOrchestrator struct {
	lifecycle    ReservationCommands
	reservations ReservationStore
	gateway      PaymentGateway
	currency     string
	clock        clock.Clock
	logger       *slog.Logger
}

func NewPaymentOrchestrator(
	lifecycle ReservationCommands,
	reservations ReservationStore,
	gateway PaymentGateway,
	cfg config.PaymentConfig,
	clk clock.Clock,
	logger *slog.Logger,
) PaymentCommands {
	return &paymentOrchestrator{
		lifecycle:    lifecycle,
		reservations: reservations,
		gateway:      gateway,
		currency:     cfg.Currency,
		clock:        clk,
		logger:       logger,
	}
}

// CreateIntent opens a gateway intent carrying the reservation request as metadata.
// No reservation row exists until the gateway confirms the intent through its created event.
func (o *paymentOrchestrator) CreateIntent(ctx context.Context, in CreateIntentInput, userID int64) (string, error) {
	if _, err := validateRequest(o.clock.Now(), in.StartDate, in.EndDate, in.BookPrice); err != nil {
		return "", err
	}

	md := ReservationMetadata{
		UserID:    userID,
		RoomID:    in.RoomID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		BookPrice: in.BookPrice,
	}.Encode()

	intent, err := o.gateway.CreateIntent(ctx, CreateIntentRequest{
		AmountMinor:       in.BookPrice.Cents(),
		Currency:          o.currency,
		Metadata:          md,
		DisallowRedirects: true,
		IdempotencyKey:    in.IdempotencyKey,
	})
	if err != nil {
		return "", errs.Mark(err, ErrGatewayFailure)
	}

	o.logger.Info("payment intent created",
		slog.String("intent_id", intent.ID),
		slog.Int64("user_id", userID),
		slog.Int64("room_id", in.RoomID),
	)
	return intent.ClientSecret, nil
}

func (o *paymentOrchestrator) HandleEvent(ctx context.Context, event PaymentEvent) (EventOutcome, error) {
	switch event.Type {
	case EventIntentCreated:
		return o.handleIntentCreated(ctx, event)
	case EventIntentSucceeded:
		return o.handleIntentSucceeded(ctx, event)
	case EventIntentPaymentFailed:
		return o.handleIntentPaymentFailed(ctx, event)
	case EventChargeSucceeded, EventChargeUpdated:
		return accepted(OutcomeAcknowledged, "%s acknowledged", event.Type), nil
	default:
		return rejected(OutcomeUnhandled, "%s: %s", ErrUnhandledEventType, event.Type), nil
	}
}

func (o *paymentOrchestrator) handleIntentCreated(ctx context.Context, event PaymentEvent) (EventOutcome, error) {
	if hasReservationID(event.Metadata) {
		return accepted(OutcomeDuplicate, "intent %s already has reservation %s",
			event.IntentID, event.Metadata[MetaReservationID]), nil
	}

	md, err := DecodeReservationMetadata(event.Metadata)
	if err != nil {
		return rejected(OutcomeMalformed, "%s", err), nil
	}

	// Redelivered snapshots carry no reservation id. Match by intent whatever the row's state,
	// since a failed or cancelled reservation no longer trips the overlap check.
	existing, err := o.findByIntent(ctx, md, event.IntentID)
	if err != nil {
		return EventOutcome{}, err
	}
	if existing != nil {
		return o.duplicate(ctx, event.IntentID, existing), nil
	}

	res, err := o.lifecycle.ValidateAndCreate(ctx, CreateReservationInput{
		RoomID:          md.RoomID,
		StartDate:       md.StartDate,
		EndDate:         md.EndDate,
		BookPrice:       md.BookPrice,
		PaymentIntentID: event.IntentID,
	}, md.UserID)
	if err != nil {
		if errs.Is(err, ErrUserOverlap) {
			// A concurrent delivery of the same event may have won the room lock.
			winner, ferr := o.findByIntent(ctx, md, event.IntentID)
			if ferr != nil {
				return EventOutcome{}, ferr
			}
			if winner != nil {
				return o.duplicate(ctx, event.IntentID, winner), nil
			}
		}
		return o.classify(err)
	}

	o.attachReservation(ctx, event.IntentID, res.ID())
	return accepted(OutcomeApplied, "reservation %s created", res.ID()), nil
}

func (o *paymentOrchestrator) handleIntentSucceeded(ctx context.Context, event PaymentEvent) (EventOutcome, error) {
	id, err := ReservationIDFromMetadata(event.Metadata)
	if err != nil {
		return rejected(OutcomeMalformed, "%s", err), nil
	}

	ok, err := o.lifecycle.Transition(ctx, id, reservation.MarkPaid)
	if err != nil {
		return o.classify(err)
	}
	if !ok {
		return rejected(OutcomeNotFound, "reservation %s not found", id), nil
	}
	return accepted(OutcomeApplied, "reservation %s confirmed", id), nil
}

// A failed payment is never an accepted outcome, whatever happened to the reservation.
func (o *paymentOrchestrator) handleIntentPaymentFailed(ctx context.Context, event PaymentEvent) (EventOutcome, error) {
	id, err := ReservationIDFromMetadata(event.Metadata)
	if err != nil {
		return rejected(OutcomeMalformed, "%s", err), nil
	}

	ok, err := o.lifecycle.Transition(ctx, id, reservation.MarkFailed)
	if err != nil {
		return o.classify(err)
	}
	if !ok {
		return rejected(OutcomeNotFound, "payment failed for intent %s: reservation %s not found", event.IntentID, id), nil
	}
	return rejected(OutcomeFailed, "payment failed for intent %s: reservation %s cancelled", event.IntentID, id), nil
}

// classify turns lifecycle validation errors into rejected outcomes and lets everything else
// through as an error.
func (o *paymentOrchestrator) classify(err error) (EventOutcome, error) {
	switch {
	case errs.Is(err, ErrNotFound):
		return rejected(OutcomeNotFound, "%s", err), nil
	case IsValidationError(err):
		return rejected(OutcomeRejected, "%s", err), nil
	default:
		return EventOutcome{}, err
	}
}

func (o *paymentOrchestrator) findByIntent(ctx context.Context, md ReservationMetadata, intentID string) (*reservation.Reservation, error) {
	if intentID == "" {
		return nil, nil
	}
	candidates, err := o.reservations.FindByUserAndRoom(ctx, md.UserID, md.RoomID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	for _, c := range candidates {
		if c.PaymentIntentID() == intentID {
			return c, nil
		}
	}
	return nil, nil
}

func (o *paymentOrchestrator) duplicate(ctx context.Context, intentID string, existing *reservation.Reservation) EventOutcome {
	o.attachReservation(ctx, intentID, existing.ID())
	return accepted(OutcomeDuplicate, "intent %s already created reservation %s (%s)",
		intentID, existing.ID(), existing.State())
}

// attachReservation makes the reservation id visible to later events on the same intent.
// A failure only costs a redelivery lookup, so it is logged and swallowed.
func (o *paymentOrchestrator) attachReservation(ctx context.Context, intentID string, reservationID uuid.UUID) {
	err := o.gateway.UpdateIntentMetadata(ctx, intentID, map[string]string{
		MetaReservationID: reservationID.String(),
	})
	if err != nil {
		o.logger.Warn("failed to attach reservation to payment intent",
			slog.String("intent_id", intentID),
			slog.String("reservation_id", reservationID.String()),
			slog.String("error", err.Error()),
		)
	}
}
