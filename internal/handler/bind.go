package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/model"
)

// bindJSON decodes the request body into dst. Malformed JSON, unknown
// fields and values of the wrong type are VALIDATION_ERRORs naming the
// offending field.
func bindJSON(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return apperr.Validationf("body", "request body must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	var timeErr *time.ParseError
	switch {
	case errors.Is(err, io.EOF):
		return apperr.Validationf("body", "request body is required")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperr.Validationf(field, "%s must be of type %s", field, typeErr.Type.String())
	case errors.As(err, &syntaxErr):
		return apperr.Validationf("body", "malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &timeErr):
		return apperr.Validationf("body", "invalid date %q, use RFC 3339", timeErr.Value)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.Validationf("body", "malformed JSON")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		// encoding/json has no typed error for this case
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return apperr.Validationf(field, "%s is not an accepted field", field)
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return apperr.Validationf("body", "invalid request body: %v", err)
	}
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validationf(name, "%s must be an integer", name)
	}
	return n, nil
}

func queryFloat(c echo.Context, name string) (float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.Validationf(name, "%s must be a number", name)
	}
	return f, nil
}

// listParams reads page, limit and sort. Range checks happen in the
// service via ListParams.Normalize.
func listParams(c echo.Context) (model.ListParams, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return model.ListParams{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return model.ListParams{}, err
	}
	if c.QueryParams().Has("page") && page == 0 {
		return model.ListParams{}, apperr.Validationf("page", "page must be at least 1")
	}
	return model.ListParams{Page: page, Limit: limit, Sort: strings.TrimSpace(c.QueryParam("sort"))}, nil
}

func tourFilter(c echo.Context) (model.TourFilter, error) {
	distance, err := queryFloat(c, "distance")
	if err != nil {
		return model.TourFilter{}, err
	}
	group, err := queryInt(c, "maxGroupSize")
	if err != nil {
		return model.TourFilter{}, err
	}
	return model.TourFilter{
		City:         c.QueryParam("city"),
		MinDistance:  distance,
		MinGroupSize: group,
	}, nil
}

func experienceFilter(c echo.Context) model.ExperienceFilter {
	return model.ExperienceFilter{
		Category:    strings.TrimSpace(c.QueryParam("category")),
		BudgetRange: strings.TrimSpace(c.QueryParam("budgetRange")),
		Destination: c.QueryParam("destination"),
		Search:      c.QueryParam("search"),
	}
}

func fieldf(field, format string, args ...any) apperr.FieldError {
	return apperr.FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}
