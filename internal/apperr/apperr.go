// Package apperr defines the error taxonomy shared by every layer of the API.
//
// Repositories and services return *Error values (or wrap driver errors into
// them); the HTTP error handler turns the Kind into a status code and a JSON
// body. Callers compare with errors.Is against the sentinel values:
//
//	if errors.Is(err, apperr.ErrDuplicateKey) {
//	    ...
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the machine-readable error class sent to clients in the "error" field.
type Kind string

// Error kinds, one per response class.
const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindInvalidIdentifier  Kind = "INVALID_IDENTIFIER"
	KindDuplicateKey       Kind = "DUPLICATE_KEY"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindInvalidToken       Kind = "INVALID_TOKEN"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindUnavailable        Kind = "SERVICE_UNAVAILABLE"
	KindUpstream           Kind = "UPSTREAM_FAILURE"
	KindInternal           Kind = "INTERNAL"
)

// HTTPStatus maps a kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidIdentifier, KindDuplicateKey:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidToken, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FieldError names one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	cause   error
}

// Error returns the client-facing message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// HTTPStatus returns the status code for this error.
func (e *Error) HTTPStatus() int { return e.Kind.HTTPStatus() }

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Fields: e.Fields, cause: err}
}

// Field returns the first field name attached to the error, if any.
func (e *Error) Field() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Field
}

// Sentinels for errors.Is.
var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrInvalidIdentifier  = &Error{Kind: KindInvalidIdentifier, Message: "invalid identifier"}
	ErrDuplicateKey       = &Error{Kind: KindDuplicateKey, Message: "duplicate key"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken, Message: "invalid token"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrRateLimited        = &Error{Kind: KindRateLimited, Message: "rate limit exceeded"}
	ErrUnavailable        = &Error{Kind: KindUnavailable, Message: "service unavailable"}
	ErrUpstream           = &Error{Kind: KindUpstream, Message: "upstream failure"}
	ErrInternal           = &Error{Kind: KindInternal, Message: "internal server error"}
)

// Validation builds a validation error that lists every violated field.
func Validation(fields ...FieldError) *Error {
	msg := "validation failed"
	if len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f.Message)
		}
		msg = strings.Join(parts, "; ")
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Validationf builds a single-field validation error.
func Validationf(field, format string, args ...any) *Error {
	return Validation(FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// InvalidIdentifier reports a malformed id for the named resource.
func InvalidIdentifier(resource string) *Error {
	return &Error{Kind: KindInvalidIdentifier, Message: "invalid " + resource + " id"}
}

// Duplicate reports a uniqueness violation on field.
func Duplicate(field, msg string) *Error {
	e := &Error{Kind: KindDuplicateKey, Message: msg}
	if field != "" {
		e.Fields = []FieldError{{Field: field, Message: msg}}
	}
	return e
}

// Unauthenticated reports a missing or unreadable credential.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// InvalidToken reports a token that failed verification.
func InvalidToken(msg string) *Error {
	return &Error{Kind: KindInvalidToken, Message: msg}
}

// InvalidCredentials reports a password mismatch.
func InvalidCredentials(msg string) *Error {
	return &Error{Kind: KindInvalidCredentials, Message: msg}
}

// Forbidden reports an authenticated caller lacking permission.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound reports a missing resource.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// RateLimited reports a caller that exhausted its request budget.
func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// Unavailable wraps a store failure caused by timeouts or lost connections.
func Unavailable(msg string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, cause: cause}
}

// Upstream wraps a failure of an external collaborator.
func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, cause: cause}
}

// Internal wraps an unexpected failure.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
