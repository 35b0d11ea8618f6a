package service

import (
	"context"
	"log/slog"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/payment"
	"github.com/iliyamo/travel-booking-api/internal/queue"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

// CreateOrderInput asks for a provider order. BookingID, when set, links
// the order to one of the caller's bookings and the amount is taken from
// the booking total; a client amount must then match it.
type CreateOrderInput struct {
	Amount    float64 `json:"amount" validate:"omitempty,gt=0"`
	BookingID string  `json:"bookingId"`
}

// VerifyPaymentInput carries the values the checkout widget returns.
type VerifyPaymentInput struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required,hexadecimal"`
	BookingID string `json:"bookingId"`
}

// VerifyResult reports a verified payment and, when linked, the confirmed
// booking.
type VerifyResult struct {
	OrderID   string         `json:"orderId"`
	PaymentID string         `json:"paymentId"`
	Booking   *model.Booking `json:"booking,omitempty"`
}

// PaymentService opens provider orders and verifies checkout signatures.
type PaymentService struct {
	provider payment.Provider
	bookings *repository.BookingRepo
	currency string
	pub      queue.Publisher
	v        *validation.Validator
	log      *slog.Logger
}

// NewPaymentService wires a provider to the booking store. pub receives a
// payment.verified event per verified checkout.
func NewPaymentService(provider payment.Provider, bookings *repository.BookingRepo, currency string,
	pub queue.Publisher, v *validation.Validator, log *slog.Logger) *PaymentService {
	return &PaymentService{provider: provider, bookings: bookings, currency: currency, pub: pub, v: v, log: log}
}

// KeyID is the public half of the key pair, needed by the checkout widget.
func (s *PaymentService) KeyID() string { return s.provider.KeyID() }

// CreateOrder opens a provider order in the configured currency. Orders for
// a booking are charged the booking total, never a client supplied figure.
func (s *PaymentService) CreateOrder(ctx context.Context, who model.Identity, in CreateOrderInput) (payment.Order, error) {
	if err := s.v.Validate(in); err != nil {
		return payment.Order{}, err
	}
	amount := payment.ToMinor(in.Amount)
	receipt := "rcpt_" + who.ID
	if in.BookingID != "" {
		b, err := s.ownedBooking(ctx, who, in.BookingID)
		if err != nil {
			return payment.Order{}, err
		}
		if b.Status != model.BookingPending {
			return payment.Order{}, apperr.Validationf("bookingId", "booking is %s and cannot be paid", b.Status)
		}
		total := payment.ToMinor(b.TotalPrice)
		if total <= 0 {
			return payment.Order{}, apperr.Validationf("bookingId", "booking has nothing to pay")
		}
		if amount != 0 && amount != total {
			return payment.Order{}, apperr.Validationf("amount", "amount does not match the booking total")
		}
		amount = total
		receipt = "rcpt_" + in.BookingID
	} else if amount == 0 {
		return payment.Order{}, apperr.Validationf("amount", "amount is required")
	}
	order, err := s.provider.CreateOrder(ctx, amount, s.currency, truncate(receipt, 40))
	if err != nil {
		return payment.Order{}, err
	}
	if in.BookingID != "" {
		if err := s.bookings.SetPaymentOrder(ctx, in.BookingID, order.ID); err != nil {
			return payment.Order{}, err
		}
	}
	return order, nil
}

// VerifyPayment checks the checkout signature. A mismatch is rejected as a
// validation error; a match optionally confirms the linked booking, which
// requires the order to be the one CreateOrder opened for that booking.
func (s *PaymentService) VerifyPayment(ctx context.Context, who model.Identity, in VerifyPaymentInput) (VerifyResult, error) {
	if err := s.v.Validate(in); err != nil {
		return VerifyResult{}, err
	}
	if !payment.VerifySignature(in.OrderID, in.PaymentID, in.Signature, s.provider.Secret()) {
		return VerifyResult{}, apperr.Validationf("razorpay_signature", "payment signature is invalid")
	}
	res := VerifyResult{OrderID: in.OrderID, PaymentID: in.PaymentID}
	if in.BookingID != "" {
		b, err := s.ownedBooking(ctx, who, in.BookingID)
		if err != nil {
			return VerifyResult{}, err
		}
		if b.PaymentOrderID == "" || b.PaymentOrderID != in.OrderID {
			return VerifyResult{}, apperr.Validationf("razorpay_order_id", "order was not created for this booking")
		}
		confirmed, err := s.bookings.Confirm(ctx, in.BookingID, in.OrderID, in.PaymentID)
		if err != nil {
			return VerifyResult{}, err
		}
		res.Booking = &confirmed
	}
	publish(ctx, s.pub, s.log, queue.TypePaymentVerified, queue.PaymentVerified{
		OrderID:   in.OrderID,
		PaymentID: in.PaymentID,
		BookingID: in.BookingID,
		UserID:    who.ID,
	})
	return res, nil
}

func (s *PaymentService) ownedBooking(ctx context.Context, who model.Identity, bookingID string) (model.Booking, error) {
	if err := requireID(bookingID, "booking"); err != nil {
		return model.Booking{}, err
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !who.Owns(b.UserID) {
		return model.Booking{}, apperr.Forbidden("booking belongs to another user")
	}
	return b, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
