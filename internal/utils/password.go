package utils

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
)

// MinBcryptCost is the lowest cost HashPassword will use.
const MinBcryptCost = 10

// HashPassword returns bcrypt hash using the given cost, raised to
// MinBcryptCost when lower.
func HashPassword(plain string, cost int) (string, error) {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return "", apperr.Validationf("password", "password must be at most 72 bytes")
		}
		return "", apperr.Internal("hash password", err)
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
