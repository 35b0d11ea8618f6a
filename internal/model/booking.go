package model

import "time"

// Booking states.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking records a reservation of a tour. UnitPrice and TotalPrice are a
// snapshot taken at creation; later tour price changes do not affect them.
type Booking struct {
	ID             string    `json:"_id"`
	UserID         string    `json:"userId"`
	UserEmail      string    `json:"userEmail"`
	TourID         string    `json:"tourId"`
	TourName       string    `json:"tourName"`
	FullName       string    `json:"fullName"`
	Phone          string    `json:"phone"`
	GuestSize      int       `json:"guestSize"`
	BookAt         time.Time `json:"bookAt"`
	UnitPrice      float64   `json:"unitPrice"`
	TotalPrice     float64   `json:"totalPrice"`
	Status         string    `json:"status"`
	PaymentOrderID string    `json:"paymentOrderId,omitempty"`
	PaymentID      string    `json:"paymentId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// BookingInput is the create payload. The caller identity supplies the user.
type BookingInput struct {
	TourID    string    `json:"tourId" validate:"required"`
	FullName  string    `json:"fullName" validate:"required,max=128"`
	Phone     string    `json:"phone" validate:"required,min=5,max=32"`
	GuestSize int       `json:"guestSize" validate:"required,gte=1"`
	BookAt    time.Time `json:"bookAt" validate:"required"`
}
