package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/utils"
)

// TokenVerifier checks a raw bearer token. *utils.TokenService satisfies it.
type TokenVerifier interface {
	Verify(raw string) (*utils.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token. A missing or
// malformed Authorization header is UNAUTHENTICATED; a token that fails
// verification is INVALID_TOKEN. On success the identity is attached to the
// context for CurrentIdentity.
func RequireAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentIdentity(c); ok {
				return next(c)
			}
			who, err := authenticate(c, tokens)
			if err != nil {
				return err
			}
			setIdentity(c, who)
			return next(c)
		}
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if who, err := authenticate(c, tokens); err == nil {
				setIdentity(c, who)
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, tokens TokenVerifier) (model.Identity, error) {
	raw, ok := bearerToken(c)
	if !ok {
		return model.Identity{}, apperr.Unauthenticated("missing bearer token")
	}
	claims, err := tokens.Verify(raw)
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{ID: claims.UserID(), Role: claims.Role, Username: claims.Username}, nil
}
