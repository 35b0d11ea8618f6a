package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/model"
)

// RequireRole authenticates the caller and then demands one of roles.
func RequireRole(tokens TokenVerifier, roles ...string) echo.MiddlewareFunc {
	auth := RequireAuth(tokens)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return auth(func(c echo.Context) error {
			who, _ := CurrentIdentity(c)
			if !slices.Contains(roles, who.Role) {
				return apperr.Forbidden("you do not have permission to perform this action")
			}
			return next(c)
		})
	}
}

// RequireAdmin is RequireRole for the admin role.
func RequireAdmin(tokens TokenVerifier) echo.MiddlewareFunc {
	return RequireRole(tokens, model.RoleAdmin)
}
