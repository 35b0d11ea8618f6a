package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains QueueName and appends one line per event to a log file.
type Consumer struct {
	URL     string
	LogPath string
	Log     *slog.Logger
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled. Messages that cannot be handled are rejected without
// requeue so a poison message cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("event consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("event consumer: loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("event consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.Log.Warn("event consumer: handle message failed", "err", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle appends body, a JSON Event, to the log file.
func (c *Consumer) Handle(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line, err := FormatLine(ev)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human-friendly line ending in "\n".
func FormatLine(ev Event) (string, error) {
	ts := ev.OccurredAt.UTC().Format(time.RFC3339)
	switch ev.Type {
	case TypeBookingCreated:
		var b BookingCreated
		if err := json.Unmarshal(ev.Data, &b); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", ev.Type, err)
		}
		return fmt.Sprintf("[%s] Booking created | booking_id=%s | user_id=%s | tour=%q | guests=%d | book_at=%s | total=%.2f\n",
			ts, b.BookingID, b.UserID, b.TourName, b.GuestSize, b.BookAt, b.TotalPrice), nil
	case TypePaymentVerified:
		var p PaymentVerified
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", ev.Type, err)
		}
		booking := p.BookingID
		if booking == "" {
			booking = "-"
		}
		return fmt.Sprintf("[%s] Payment verified | order_id=%s | payment_id=%s | booking_id=%s | user_id=%s\n",
			ts, p.OrderID, p.PaymentID, booking, p.UserID), nil
	default:
		return fmt.Sprintf("[%s] %s | %s\n", ts, ev.Type, strings.TrimSpace(string(ev.Data))), nil
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
