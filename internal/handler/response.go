// Package handler exposes the HTTP API. Handlers decode requests, call the
// service layer and wrap results in the JSON envelope shared by every
// endpoint; errors are returned to echo and rendered by HTTPErrorHandler.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/model"
)

// envelope is the success body: {success, message?, data, total?, page?, limit?, token?}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
	Total   *int   `json:"total,omitempty"`
	Page    int    `json:"page,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Token   string `json:"token,omitempty"`
}

func respond(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

func ok(c echo.Context, msg string, data any) error {
	return respond(c, http.StatusOK, msg, data)
}

func created(c echo.Context, msg string, data any) error {
	return respond(c, http.StatusCreated, msg, data)
}

// paged writes one page of a listing. count is the number of items on this
// page, total the number across all pages.
func paged[T any](c echo.Context, msg string, p model.Page[T]) error {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	total, count := p.Total, len(items)
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: msg,
		Data:    items,
		Total:   &total,
		Count:   &count,
		Page:    p.Page,
		Limit:   p.Limit,
	})
}
