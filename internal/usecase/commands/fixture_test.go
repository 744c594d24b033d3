//go:build unit

package commands_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"hotel-booking/internal/infra/lock"
	"hotel-booking/internal/infra/memstore"
	"hotel-booking/internal/pkg/clock"
	"hotel-booking/internal/pkg/config"
	"hotel-booking/internal/usecase/commands"
	"hotel-booking/tests/common/builder"
	"hotel-booking/tests/common/testutil"
	commandsmock "hotel-booking/tests/mock/commands"

	"go.uber.org/mock/gomock"
)

const webhookSecret = "whsec_test"

type recordingPublisher struct {
	mu     sync.Mutex
	events []commands.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event commands.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []commands.ReservationEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]commands.ReservationEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fixture wires the real lifecycle, orchestrator and dispatcher over in-memory stores.
// Only the payment gateway is mocked.
type fixture struct {
	ctrl         *gomock.Controller
	clock        *clock.MockClock
	users        *memstore.UserStore
	rooms        *memstore.RoomStore
	reservations *memstore.ReservationStore
	gateway      *commandsmock.MockPaymentGateway
	events       *recordingPublisher
	lifecycle    commands.ReservationCommands
	payments     commands.PaymentCommands
	webhook      commands.WebhookCommands
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testutil.DiscardLogger()
	ctrl := gomock.NewController(t)
	cfg := config.NewTestConfig()

	f := &fixture{
		ctrl:  ctrl,
		clock: clock.NewMockClock(builder.Today),
		users: memstore.NewUserStore(logger,
			commands.UserSnapshot{ID: 1, Email: "first@example.com"},
			commands.UserSnapshot{ID: 2, Email: "second@example.com"},
		),
		rooms: memstore.NewRoomStore(logger,
			commands.RoomSnapshot{ID: 7, HotelID: 1, Name: "Sea View Double"},
			commands.RoomSnapshot{ID: 8, HotelID: 1, Name: "Garden Single"},
		),
		reservations: memstore.NewReservationStore(logger),
		gateway:      commandsmock.NewMockPaymentGateway(ctrl),
		events:       &recordingPublisher{},
	}

	f.lifecycle = commands.NewReservationLifecycle(
		f.users, f.rooms, f.reservations, lock.NewLocalLocker(), f.events, f.clock, logger,
	)
	f.payments = commands.NewPaymentOrchestrator(
		f.lifecycle, f.reservations, f.gateway, cfg.Payment, f.clock, logger,
	)
	f.webhook = commands.NewWebhookDispatcher(f.gateway, f.payments, cfg.Payment, logger)
	return f
}

// expectEventsDecodedFromPayload makes the gateway mock accept any payload signed with
// "valid" and decode it as a JSON PaymentEvent.
func (f *fixture) expectEventsDecodedFromPayload() {
	f.gateway.EXPECT().
		VerifyAndParseEvent(gomock.Any(), "valid", webhookSecret).
		DoAndReturn(func(payload []byte, _, _ string) (commands.PaymentEvent, error) {
			var ev commands.PaymentEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				return commands.PaymentEvent{}, commands.ErrMalformedEvent
			}
			return ev, nil
		}).
		AnyTimes()
}

func payload(t *testing.T, ev commands.PaymentEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
