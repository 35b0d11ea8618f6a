package utils // package utils provides token signing and password hashing helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
)

// DefaultTokenTTL is the bearer token lifetime. There is no refresh flow;
// an expired token forces a new login.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims are the identity fields carried in a bearer token.
type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a TokenService. A non-positive ttl selects
// DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Tests use it to mint expired tokens.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for the given identity and returns it with its expiry.
func (s *TokenService) Issue(userID, role, username string) (string, time.Time, error) {
	issued := s.now().UTC()
	exp := issued.Add(s.ttl)
	claims := Claims{
		Role:     role,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(issued),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperr.Internal("sign token", err)
	}
	return signed, exp, nil
}

// Verify parses raw and checks signature, algorithm and expiry. Any failure
// is reported as apperr.ErrInvalidToken.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperr.InvalidToken("token has expired").WithCause(err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, apperr.InvalidToken("malformed token").WithCause(err)
		default:
			return nil, apperr.InvalidToken("invalid token").WithCause(err)
		}
	}
	if !tok.Valid || claims.Subject == "" || claims.Role == "" {
		return nil, apperr.InvalidToken("invalid token claims")
	}
	return claims, nil
}
