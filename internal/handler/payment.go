package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/middleware"
	"github.com/iliyamo/travel-booking-api/internal/service"
)

// PaymentHandler serves checkout order creation and verification.
type PaymentHandler struct {
	Payments *service.PaymentService
}

// NewPaymentHandler returns a PaymentHandler backed by payments.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

// Key returns the public key id the checkout widget needs.
func (h *PaymentHandler) Key(c echo.Context) error {
	key := h.Payments.KeyID()
	if key == "" {
		return apperr.Upstream("payment provider is not configured", nil)
	}
	return ok(c, "", map[string]string{"key": key})
}

// CreateOrder opens a provider order, charged at the booking total when
// bookingId is given.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var in service.CreateOrderInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	who, _ := middleware.CurrentIdentity(c)
	order, err := h.Payments.CreateOrder(c.Request().Context(), who, in)
	if err != nil {
		return err
	}
	return ok(c, "order created", order)
}

// Verify checks the checkout signature and confirms the linked booking.
func (h *PaymentHandler) Verify(c echo.Context) error {
	var in service.VerifyPaymentInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	who, _ := middleware.CurrentIdentity(c)
	res, err := h.Payments.VerifyPayment(c.Request().Context(), who, in)
	if err != nil {
		return err
	}
	return ok(c, "payment verified", res)
}
