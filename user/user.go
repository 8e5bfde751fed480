// Package user provides the identity record carried through a sign-in flow.
package user

import (
	"net/mail"
	"strings"

	apperrors "github.com/passflow/passflow/internal/platform/errors"
)

var (
	// ErrEmptyEmail indicates a missing email address.
	ErrEmptyEmail = apperrors.New(apperrors.CodeEmailEmpty, "email is required")
	// ErrInvalidEmail indicates an email that fails syntactic validation.
	ErrInvalidEmail = apperrors.New(apperrors.CodeEmailInvalid, "email is invalid")
)

// User represents an authenticated identity record.
//
// A User is created when the backend confirms a check, registration, or
// authentication, is immutable for the rest of that flow cycle, and is
// cleared on reset or sign-out.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"emailVerified"`
}

// NormalizeEmail validates and canonicalizes an email address.
//
// The sign-in core treats this as the single syntactic gate: addresses that
// pass here are safe to hand to the backend and to the conditional
// authentication path.
func NormalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyEmail
	}
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(parsed.Address), nil
}

// ValidEmail reports whether raw passes NormalizeEmail.
func ValidEmail(raw string) bool {
	_, err := NormalizeEmail(raw)
	return err == nil
}
