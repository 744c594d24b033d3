// Package broker publishes reservation lifecycle events for downstream consumers
// (notifications, housekeeping, analytics).
package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"hotel-booking/internal/pkg/config"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/internal/usecase/commands"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher sends events to a durable topic exchange; the routing key is the event type.
// A broken connection is re-dialled on the next publish.
type AMQPPublisher struct {
	url      string
	exchange string
	logger   *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(cfg config.AMQPConfig, logger *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:      cfg.URL,
		exchange: cfg.Exchange,
		logger:   logger,
	}
}

// Connect dials eagerly so misconfiguration shows up at startup.
func (p *AMQPPublisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureChannel()
}

func (p *AMQPPublisher) Publish(ctx context.Context, event commands.ReservationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "marshal reservation event")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ReservationID.String() + ":" + string(event.Type),
		Timestamp:    time.Now().UTC(),
		Type:         string(event.Type),
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, pub); err != nil {
		p.closeLocked()
		return errs.Wrapf(err, "publish %s", event.Type)
	}

	p.logger.Debug("reservation event published",
		slog.String("type", string(event.Type)),
		slog.String("reservation_id", event.ReservationID.String()),
	)
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

// ensureChannel must be called with p.mu held.
func (p *AMQPPublisher) ensureChannel() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return errs.Wrap(err, "dial amqp broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return errs.Wrap(err, "open amqp channel")
	}

	// Idempotent; durable so bindings survive broker restarts.
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return errs.Wrapf(err, "declare exchange %s", p.exchange)
	}

	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}
