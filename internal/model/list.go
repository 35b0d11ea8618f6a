package model

import (
	"math"
	"slices"
	"strings"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
)

// Paging defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxOffset bounds (Page-1)*Limit so the offset never wraps.
	MaxOffset = math.MaxInt32
)

// ListParams selects one page of a listing. Pages are 1-indexed.
type ListParams struct {
	Page  int
	Limit int
	Sort  string
}

// Normalize fills defaults and rejects out-of-range values. allowedSorts
// lists the sort names the listing understands; the first is the default.
func (p ListParams) Normalize(allowedSorts ...string) (ListParams, error) {
	var fields []apperr.FieldError
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 {
		fields = append(fields, apperr.FieldError{Field: "page", Message: "page must be at least 1"})
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		fields = append(fields, apperr.FieldError{Field: "limit", Message: "limit must be between 1 and 100"})
	} else if p.Page > 1 && p.Page-1 > MaxOffset/p.Limit {
		fields = append(fields, apperr.FieldError{Field: "page", Message: "page is too large"})
	}
	if p.Sort == "" && len(allowedSorts) > 0 {
		p.Sort = allowedSorts[0]
	}
	if p.Sort != "" && len(allowedSorts) > 0 && !slices.Contains(allowedSorts, p.Sort) {
		fields = append(fields, apperr.FieldError{Field: "sort", Message: "sort must be one of [" + strings.Join(allowedSorts, " ") + "]"})
	}
	if len(fields) > 0 {
		return p, apperr.Validation(fields...)
	}
	return p, nil
}

// Offset is the number of rows skipped before this page.
func (p ListParams) Offset() int { return (p.Page - 1) * p.Limit }

// Page is one page of results with the total across all pages.
type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}
