// Package queue defines domain events and moves them over RabbitMQ.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QueueName is the durable queue every event is routed to.
const QueueName = "travel.events"

// Event types.
const (
	TypeBookingCreated  = "booking.created"
	TypePaymentVerified = "payment.verified"
)

// Event is the envelope published to the broker.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// BookingCreated is published after a booking is stored. It carries enough
// for downstream consumers to log or notify without querying the store.
type BookingCreated struct {
	BookingID  string  `json:"booking_id"`
	UserID     string  `json:"user_id"`
	UserEmail  string  `json:"user_email"`
	TourID     string  `json:"tour_id"`
	TourName   string  `json:"tour_name"`
	GuestSize  int     `json:"guest_size"`
	BookAt     string  `json:"book_at"`
	TotalPrice float64 `json:"total_price"`
}

// PaymentVerified is published after a checkout signature checks out.
type PaymentVerified struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	BookingID string `json:"booking_id,omitempty"`
	UserID    string `json:"user_id"`
}

// NewEvent wraps payload in an Event of the given type.
func NewEvent(typ string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return Event{ID: uuid.NewString(), Type: typ, OccurredAt: time.Now().UTC(), Data: data}, nil
}
