package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/middleware"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/service"
)

// BookingHandler serves the booking routes.
type BookingHandler struct {
	Bookings *service.BookingService
}

// NewBookingHandler returns a BookingHandler backed by bookings.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

// Create books a tour for the caller; any user id in the body is ignored.
func (h *BookingHandler) Create(c echo.Context) error {
	var in model.BookingInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	who, _ := middleware.CurrentIdentity(c)
	b, err := h.Bookings.Create(c.Request().Context(), who, in)
	if err != nil {
		return err
	}
	return created(c, "your tour is booked", b)
}

// Get is guarded by RequireOwnerOrAdmin with the booking's owner.
func (h *BookingHandler) Get(c echo.Context) error {
	b, err := h.Bookings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, "", b)
}

// List pages through every booking. Admin only.
func (h *BookingHandler) List(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.Bookings.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return paged(c, "", page)
}

// ListByUser lists the bookings of the user named by :id.
func (h *BookingHandler) ListByUser(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.Bookings.ListByUser(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	return paged(c, "", page)
}
