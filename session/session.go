// Package session holds the authenticated session record and its
// persistence contract.
//
// The sign-in core creates a Session on successful authentication and hands
// it to a Store; it never inspects where or how the Store keeps it.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/passflow/passflow/user"
)

// ErrNotFound indicates no persisted session exists.
var ErrNotFound = errors.New("session not found")

// Session is an authenticated session issued by the backend.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         user.User
	ExpiresAt    time.Time
	LastActivity time.Time
}

// Expired reports whether the session is past its expiry at the given time.
// Sessions without a known expiry never expire locally; the backend stays the
// authority.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// New builds a Session from backend-issued tokens. The expiry is read from
// the access token's registered claims without signature verification: the
// client holds no verification key and only needs the timestamp for local
// housekeeping.
func New(accessToken, refreshToken string, u user.User, now time.Time) Session {
	return Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         u,
		ExpiresAt:    tokenExpiry(accessToken),
		LastActivity: now,
	}
}

// tokenExpiry extracts the exp claim from a JWT, or zero when absent or
// unparseable.
func tokenExpiry(token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time.UTC()
}

// Store persists one session per sign-in surface.
type Store interface {
	// Save stores the session, replacing any previous one.
	Save(ctx context.Context, s Session) error
	// Load returns the persisted session or ErrNotFound.
	Load(ctx context.Context) (Session, error)
	// Delete removes the persisted session. Deleting an absent session is
	// not an error.
	Delete(ctx context.Context) error
}
