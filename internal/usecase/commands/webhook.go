package commands

//go:generate mockgen -source=webhook.go -destination=../../../tests/mock/commands/webhook_mock.go -package=commandsmock

import (
	"context"
	"log/slog"

	"hotel-booking/internal/pkg/config"
	"hotel-booking/internal/pkg/errs"
)

type WebhookCommands interface {
	// Receive returns ErrSignatureInvalid or ErrMalformedEvent for payloads it refuses to read.
	// Any other error is unexpected and worth a gateway retry.
	Receive(ctx context.Context, payload []byte, signature string) (EventOutcome, error)
}

type webhookDispatcher struct {
	gateway  PaymentGateway
	payments PaymentCommands
	secret   string
	logger   *slog.Logger
}

func NewWebhookDispatcher(
	gateway PaymentGateway,
	payments PaymentCommands,
	cfg config.PaymentConfig,
	logger *slog.Logger,
) WebhookCommands {
	return &webhookDispatcher{
		gateway:  gateway,
		payments: payments,
		secret:   cfg.WebhookSecret,
		logger:   logger,
	}
}

func (d *webhookDispatcher) Receive(ctx context.Context, payload []byte, signature string) (EventOutcome, error) {
	if signature == "" {
		return EventOutcome{}, errs.Wrap(ErrSignatureInvalid, "signature header is missing")
	}

	event, err := d.gateway.VerifyAndParseEvent(payload, signature, d.secret)
	if err != nil {
		if errs.Is(err, ErrSignatureInvalid) || errs.Is(err, ErrMalformedEvent) {
			return EventOutcome{}, err
		}
		return EventOutcome{}, errs.Mark(err, ErrMalformedEvent)
	}
	if err := event.Validate(); err != nil {
		return EventOutcome{}, err
	}

	// Once verified, the event runs to completion even if the sender hangs up.
	outcome, err := d.payments.HandleEvent(context.WithoutCancel(ctx), event)
	if err != nil {
		return EventOutcome{}, errs.Wrapf(err, "handle %s event %s", event.Type, event.ID)
	}

	attrs := []any{
		slog.String("event_id", event.ID),
		slog.String("event_type", string(event.Type)),
		slog.String("intent_id", event.IntentID),
		slog.String("outcome", string(outcome.Kind)),
		slog.String("message", outcome.Message),
	}
	switch {
	case outcome.Accepted, outcome.Kind == OutcomeUnhandled:
		d.logger.Info("webhook event handled", attrs...)
	default:
		d.logger.Warn("webhook event rejected", attrs...)
	}

	return outcome, nil
}
