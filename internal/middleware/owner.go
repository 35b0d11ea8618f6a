package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
)

// OwnerResolver names the user that owns the resource a request targets.
type OwnerResolver func(c echo.Context) (string, error)

// ParamOwner treats the path parameter itself as the owning user id, as on
// /users/:id.
func ParamOwner(param string) OwnerResolver {
	return func(c echo.Context) (string, error) {
		return c.Param(param), nil
	}
}

// LookupOwner resolves the owner by loading the resource named by the path
// parameter, as on /bookings/:id. lookup errors (NOT_FOUND,
// INVALID_IDENTIFIER) are returned unchanged.
func LookupOwner(param string, lookup func(ctx context.Context, id string) (string, error)) OwnerResolver {
	return func(c echo.Context) (string, error) {
		return lookup(c.Request().Context(), c.Param(param))
	}
}

// RequireOwnerOrAdmin authenticates the caller and allows the request when
// the caller owns the target or is an admin.
func RequireOwnerOrAdmin(tokens TokenVerifier, owner OwnerResolver) echo.MiddlewareFunc {
	auth := RequireAuth(tokens)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return auth(func(c echo.Context) error {
			who, _ := CurrentIdentity(c)
			if who.IsAdmin() {
				return next(c)
			}
			ownerID, err := owner(c)
			if err != nil {
				return err
			}
			if !who.Owns(ownerID) {
				return apperr.Forbidden("you can only access your own resources")
			}
			return next(c)
		})
	}
}
