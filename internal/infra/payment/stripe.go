// Package payment adapts the Stripe API to the checkout flow.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"hotel-booking/internal/pkg/config"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/internal/usecase/commands"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// NewStripeClient builds an explicitly keyed client; the package-level stripe.Key is never set.
func NewStripeClient(cfg config.PaymentConfig) *client.API {
	return client.New(cfg.StripeSecretKey, nil)
}

type StripeGateway struct {
	api              *client.API
	strictAPIVersion bool
	logger           *slog.Logger
}

func NewStripeGateway(api *client.API, cfg config.PaymentConfig, logger *slog.Logger) *StripeGateway {
	return &StripeGateway{
		api:              api,
		strictAPIVersion: cfg.StrictAPIVersion,
		logger:           logger,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req commands.CreateIntentRequest) (*commands.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.DisallowRedirects {
		params.AutomaticPaymentMethods.AllowRedirects = stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever))
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, errs.Wrap(err, "stripe: create payment intent")
	}

	return &commands.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// UpdateIntentMetadata merges keys into the intent's metadata; Stripe keeps keys not mentioned.
func (g *StripeGateway) UpdateIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error {
	params := &stripe.PaymentIntentParams{}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Update(intentID, params); err != nil {
		return errs.Wrapf(err, "stripe: update metadata of %s", intentID)
	}
	return nil
}

var signatureErrors = []error{
	webhook.ErrNotSigned,
	webhook.ErrInvalidHeader,
	webhook.ErrNoValidSignature,
	webhook.ErrTooOld,
}

// VerifyAndParseEvent checks the Stripe-Signature header and decodes the event object into
// a PaymentEvent. Unknown event types decode to a PaymentEvent with only ID and Type set.
func (g *StripeGateway) VerifyAndParseEvent(payload []byte, signature, secret string) (commands.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: !g.strictAPIVersion,
	})
	if err != nil {
		for _, sigErr := range signatureErrors {
			if errors.Is(err, sigErr) {
				return commands.PaymentEvent{}, errs.Mark(errs.Wrap(err, "stripe webhook"), commands.ErrSignatureInvalid)
			}
		}
		return commands.PaymentEvent{}, errs.Mark(errs.Wrap(err, "stripe webhook"), commands.ErrMalformedEvent)
	}

	return decodeEvent(event)
}

func decodeEvent(event stripe.Event) (commands.PaymentEvent, error) {
	out := commands.PaymentEvent{
		ID:   event.ID,
		Type: commands.PaymentEventType(event.Type),
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		if isKnown(out.Type) {
			return commands.PaymentEvent{}, errs.Wrapf(commands.ErrMalformedEvent, "%s event has no data object", event.Type)
		}
		return out, nil
	}

	switch out.Type {
	case commands.EventIntentCreated, commands.EventIntentSucceeded, commands.EventIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return commands.PaymentEvent{}, errs.Mark(errs.Wrapf(err, "decode %s object", event.Type), commands.ErrMalformedEvent)
		}
		if pi.ID == "" {
			return commands.PaymentEvent{}, errs.Wrapf(commands.ErrMalformedEvent, "%s object is not a payment intent", event.Type)
		}
		out.IntentID = pi.ID
		out.Metadata = pi.Metadata

	case commands.EventChargeSucceeded, commands.EventChargeUpdated:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return commands.PaymentEvent{}, errs.Mark(errs.Wrapf(err, "decode %s object", event.Type), commands.ErrMalformedEvent)
		}
		if ch.PaymentIntent != nil {
			out.IntentID = ch.PaymentIntent.ID
		}
		out.Metadata = ch.Metadata
	}

	return out, nil
}

func isKnown(t commands.PaymentEventType) bool {
	switch t {
	case commands.EventIntentCreated, commands.EventIntentSucceeded, commands.EventIntentPaymentFailed,
		commands.EventChargeSucceeded, commands.EventChargeUpdated:
		return true
	default:
		return false
	}
}
