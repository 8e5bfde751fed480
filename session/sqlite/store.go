// Package sqlite persists the authenticated session in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/passflow/passflow/session"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    slot INTEGER PRIMARY KEY CHECK (slot = 1),
    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    user_id TEXT NOT NULL,
    user_email TEXT NOT NULL,
    user_name TEXT NOT NULL,
    user_email_verified INTEGER NOT NULL,
    expires_at INTEGER,
    last_activity INTEGER NOT NULL
);
`

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements session.Store over SQLite.
//
// One row (slot 1) backs the single-session contract of the sign-in core: a
// store instance carries at most one authenticated identity at a time.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a session SQLite store and ensures its schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save implements session.Store.
func (s *Store) Save(ctx context.Context, sess session.Session) error {
	var expiresAt sql.NullInt64
	if !sess.ExpiresAt.IsZero() {
		expiresAt = sql.NullInt64{Int64: toMillis(sess.ExpiresAt), Valid: true}
	}
	verified := 0
	if sess.User.EmailVerified {
		verified = 1
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sessions (slot, access_token, refresh_token, user_id, user_email, user_name, user_email_verified, expires_at, last_activity)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (slot) DO UPDATE SET
    access_token = excluded.access_token,
    refresh_token = excluded.refresh_token,
    user_id = excluded.user_id,
    user_email = excluded.user_email,
    user_name = excluded.user_name,
    user_email_verified = excluded.user_email_verified,
    expires_at = excluded.expires_at,
    last_activity = excluded.last_activity;
`, sess.AccessToken, sess.RefreshToken, sess.User.ID, sess.User.Email, sess.User.Name, verified, expiresAt, toMillis(sess.LastActivity))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load implements session.Store.
func (s *Store) Load(ctx context.Context) (session.Session, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT access_token, refresh_token, user_id, user_email, user_name, user_email_verified, expires_at, last_activity
FROM sessions WHERE slot = 1;
`)
	var (
		sess         session.Session
		verified     int
		expiresAt    sql.NullInt64
		lastActivity int64
	)
	err := row.Scan(
		&sess.AccessToken,
		&sess.RefreshToken,
		&sess.User.ID,
		&sess.User.Email,
		&sess.User.Name,
		&verified,
		&expiresAt,
		&lastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	sess.User.EmailVerified = verified != 0
	if expiresAt.Valid {
		sess.ExpiresAt = fromMillis(expiresAt.Int64)
	}
	sess.LastActivity = fromMillis(lastActivity)
	return sess, nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE slot = 1;`); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

var _ session.Store = (*Store)(nil)
