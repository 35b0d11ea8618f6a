package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/database"
)

// HealthHandler reports liveness and whether the store answers.
type HealthHandler struct {
	DB database.Source
}

// NewHealthHandler returns a HealthHandler that pings db.
func NewHealthHandler(db database.Source) *HealthHandler {
	return &HealthHandler{DB: db}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health pings the store with a short deadline. A down store yields 503 so
// load balancers stop routing here.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	st := healthStatus{Status: "ok", Database: "up"}
	db, err := h.DB.DB(ctx)
	if err == nil {
		err = db.PingContext(ctx)
	}
	if err != nil {
		st = healthStatus{Status: "degraded", Database: "down"}
		return c.JSON(http.StatusServiceUnavailable, envelope{Success: false, Message: "database unavailable", Data: st})
	}
	return ok(c, "", st)
}
