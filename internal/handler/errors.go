package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
)

// errorBody is the failure envelope. Detail is only set for internal errors
// in development.
type errorBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Error   apperr.Kind         `json:"error"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
	Detail  string              `json:"detail,omitempty"`
}

// HTTPErrorHandler renders every error returned by a handler or middleware.
// Internal failures are logged with the request id; their cause is exposed
// to clients only when dev is true.
func HTTPErrorHandler(log *slog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ae := toAppError(err)
		status := ae.HTTPStatus()
		var he *echo.HTTPError
		if errors.As(err, &he) && ae.Kind != apperr.KindInternal {
			status = he.Code
		}

		body := errorBody{Message: ae.Message, Error: ae.Kind, Fields: ae.Fields}
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", status,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"err", err,
			)
			if dev && ae.Kind == apperr.KindInternal {
				body.Detail = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", "err", err)
		}
	}
}

func toAppError(err error) *apperr.Error {
	if ae, ok := apperr.As(err); ok {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Unavailable("request timed out", err)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		switch {
		case he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed:
			return apperr.NotFound(msg)
		case he.Code == http.StatusUnauthorized:
			return apperr.Unauthenticated(msg)
		case he.Code == http.StatusForbidden:
			return apperr.Forbidden(msg)
		case he.Code == http.StatusTooManyRequests:
			return apperr.RateLimited(msg)
		case he.Code == http.StatusServiceUnavailable:
			return apperr.Unavailable(msg, he)
		case he.Code < http.StatusInternalServerError:
			return apperr.Validation(apperr.FieldError{Field: "body", Message: msg})
		}
	}
	return apperr.Internal("internal server error", err)
}
