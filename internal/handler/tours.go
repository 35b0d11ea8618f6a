package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/service"
)

// TourHandler serves the tour catalogue.
type TourHandler struct {
	Tours *service.TourService
}

// NewTourHandler returns a TourHandler backed by tours.
func NewTourHandler(tours *service.TourService) *TourHandler {
	return &TourHandler{Tours: tours}
}

// Create adds a tour. Admin only.
func (h *TourHandler) Create(c echo.Context) error {
	var in model.TourInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	t, err := h.Tours.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return created(c, "tour created", t)
}

// Get returns a tour with its latest reviews embedded.
func (h *TourHandler) Get(c echo.Context) error {
	t, err := h.Tours.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, "", t)
}

// List serves both GET /tours and the search route; city, distance and
// maxGroupSize filter either.
func (h *TourHandler) List(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	f, err := tourFilter(c)
	if err != nil {
		return err
	}
	page, err := h.Tours.List(c.Request().Context(), f, p)
	if err != nil {
		return err
	}
	return paged(c, "", page)
}

// Featured lists tours flagged as featured.
func (h *TourHandler) Featured(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.Tours.Featured(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return paged(c, "", page)
}

// Count returns the number of tours.
func (h *TourHandler) Count(c echo.Context) error {
	n, err := h.Tours.Count(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, "", n)
}

// Update applies a partial update. Admin only.
func (h *TourHandler) Update(c echo.Context) error {
	var patch model.TourPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	t, err := h.Tours.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return ok(c, "tour updated", t)
}

// Delete removes a tour. Admin only.
func (h *TourHandler) Delete(c echo.Context) error {
	t, err := h.Tours.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, "tour deleted", t)
}
