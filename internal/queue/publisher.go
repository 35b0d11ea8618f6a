package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits domain events. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

// Publish discards ev.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }
// Close is a no-op.
func (NoopPublisher) Close() error                         { return nil }

// Broker dial limits. After a failed dial, Publish fails fast with
// ErrBrokerDown until redialBackoff has passed.
const (
	dialTimeout   = 5 * time.Second
	redialBackoff = 30 * time.Second
)

// ErrBrokerDown is returned while the publisher waits out redialBackoff.
var ErrBrokerDown = errors.New("broker unavailable, retry pending")

// AMQPPublisher publishes persistent JSON messages to QueueName. The
// connection is opened on first use and reopened after it drops.
type AMQPPublisher struct {
	url  string
	log  *slog.Logger
	dial func(url string, timeout time.Duration) (*amqp.Connection, error)
	now  func() time.Time

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	retryAfter time.Time
}

// NewAMQPPublisher returns a publisher for url. Nothing is dialled until
// the first Publish.
func NewAMQPPublisher(url string, log *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log, dial: dialBroker, now: time.Now}
}

// NewPublisher returns an AMQPPublisher when url is set, else NoopPublisher.
func NewPublisher(url string, log *slog.Logger) Publisher {
	if url == "" {
		return NoopPublisher{}
	}
	return NewAMQPPublisher(url, log)
}

func dialBroker(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(timeout)})
}

func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()
	if p.now().Before(p.retryAfter) {
		return nil, ErrBrokerDown
	}

	timeout := dialTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	conn, err := p.dial(p.url, timeout)
	if err != nil {
		p.retryAfter = p.now().Add(redialBackoff)
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.retryAfter = p.now().Add(redialBackoff)
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		p.retryAfter = p.now().Add(redialBackoff)
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.retryAfter = time.Time{}
	return ch, nil
}

// Publish sends ev to QueueName through the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel(ctx)
	if errors.Is(err, ErrBrokerDown) {
		return err
	}
	if err != nil {
		p.log.Warn("rabbitmq unavailable", "event", ev.Type, "err", err)
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",        // default exchange
		QueueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Type:         ev.Type,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		})
	if err != nil {
		p.closeLocked()
		p.log.Warn("rabbitmq publish failed", "event", ev.Type, "err", err)
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
