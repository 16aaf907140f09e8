// apperrors/errors.go
package apperrors

import "errors"

// Typed failures surfaced by the auth, token and progression layers.
// Handlers translate these into HTTP status codes with errors.Is.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotActive   = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")
)
