//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"testing"
	"time"

	"hotel-booking/internal/usecase/commands"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// FakeIntentGateway keeps payment intents in memory and delegates signature checks to the
// real gateway, so tests drive the webhook with genuinely signed payloads.
type FakeIntentGateway struct {
	verifier commands.PaymentGateway

	mu      sync.Mutex
	seq     int
	intents map[string]map[string]string
	created []commands.CreateIntentRequest
}

func NewFakeIntentGateway() *FakeIntentGateway {
	return &FakeIntentGateway{intents: make(map[string]map[string]string)}
}

func (g *FakeIntentGateway) CreateIntent(_ context.Context, req commands.CreateIntentRequest) (*commands.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	id := fmt.Sprintf("pi_e2e_%d", g.seq)
	g.intents[id] = maps.Clone(req.Metadata)
	g.created = append(g.created, req)
	return &commands.PaymentIntent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (g *FakeIntentGateway) UpdateIntentMetadata(_ context.Context, intentID string, metadata map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	md, ok := g.intents[intentID]
	if !ok {
		return fmt.Errorf("no such payment intent: %s", intentID)
	}
	maps.Copy(md, metadata)
	return nil
}

func (g *FakeIntentGateway) VerifyAndParseEvent(payload []byte, signature, secret string) (commands.PaymentEvent, error) {
	return g.verifier.VerifyAndParseEvent(payload, signature, secret)
}

func (g *FakeIntentGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents = make(map[string]map[string]string)
	g.created = nil
}

// LastIntent returns the most recent intent id and a copy of its current metadata.
func (g *FakeIntentGateway) LastIntent(t *testing.T) (string, map[string]string) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()

	id := fmt.Sprintf("pi_e2e_%d", g.seq)
	md, ok := g.intents[id]
	require.True(t, ok, "no payment intent has been created")
	return id, maps.Clone(md)
}

func (g *FakeIntentGateway) Metadata(t *testing.T, intentID string) map[string]string {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()

	md, ok := g.intents[intentID]
	require.True(t, ok, "unknown payment intent %s", intentID)
	return maps.Clone(md)
}

func (g *FakeIntentGateway) CreatedRequests() []commands.CreateIntentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]commands.CreateIntentRequest(nil), g.created...)
}

// SignedIntentEvent renders a Stripe event for a payment intent and signs it with secret.
func SignedIntentEvent(t *testing.T, secret, eventID, eventType, intentID string, metadata map[string]string) ([]byte, string) {
	t.Helper()

	object, err := json.Marshal(map[string]any{
		"id":       intentID,
		"object":   "payment_intent",
		"metadata": metadata,
	})
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"api_version": stripe.APIVersion,
		"type":        eventType,
		"data":        map[string]json.RawMessage{"object": object},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return payload, signed.Header
}
