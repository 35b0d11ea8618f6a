package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/middleware"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/service"
)

// ReviewHandler serves tour reviews.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

// NewReviewHandler returns a ReviewHandler backed by reviews.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

// Create reviews the tour named by :tourId as the caller. The tour's rating
// is already recomputed when the response is written.
func (h *ReviewHandler) Create(c echo.Context) error {
	var in model.ReviewInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	who, _ := middleware.CurrentIdentity(c)
	rv, err := h.Reviews.Create(c.Request().Context(), c.Param("tourId"), who, in)
	if err != nil {
		return err
	}
	return created(c, "review submitted", rv)
}

// ListByTour pages through the reviews of :tourId, newest first.
func (h *ReviewHandler) ListByTour(c echo.Context) error {
	p, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.Reviews.ListByTour(c.Request().Context(), c.Param("tourId"), p)
	if err != nil {
		return err
	}
	return paged(c, "", page)
}

// Delete removes a review for its author or an admin.
func (h *ReviewHandler) Delete(c echo.Context) error {
	who, _ := middleware.CurrentIdentity(c)
	rv, err := h.Reviews.Delete(c.Request().Context(), c.Param("id"), who)
	if err != nil {
		return err
	}
	return ok(c, "review deleted", rv)
}
