// security/password.go - Password hashing
package security

import (
	"golang.org/x/crypto/bcrypt"

	"lifequest/apperrors"
)

// bcrypt truncates input beyond 72 bytes; longer passwords are rejected
// outright instead of being silently cut.
const maxPasswordBytes = 72

// HashPassword produces a salted bcrypt hash. Two calls with the same
// password yield different encoded strings, both of which verify.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", apperrors.ErrInvalidInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored hash. A
// malformed hash counts as a mismatch rather than an error.
func CheckPassword(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
