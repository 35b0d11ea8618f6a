// Package middleware holds the echo middleware shared by every route group:
// bearer-token access control, the Redis response cache and the auth rate
// limiter.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/model"
)

// identityKey is the echo context key holding the resolved caller.
const identityKey = "identity"

// CurrentIdentity returns the caller attached by RequireAuth or
// OptionalAuth. ok is false for anonymous requests.
func CurrentIdentity(c echo.Context) (model.Identity, bool) {
	who, ok := c.Get(identityKey).(model.Identity)
	return who, ok
}

// CurrentUserID returns the caller's id, or "" when anonymous.
func CurrentUserID(c echo.Context) string {
	who, _ := CurrentIdentity(c)
	return who.ID
}

func setIdentity(c echo.Context, who model.Identity) {
	c.Set(identityKey, who)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(c echo.Context) (string, bool) {
	auth := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	scheme, raw, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}
