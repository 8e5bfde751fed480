package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/passflow/passflow/session"
	"github.com/passflow/passflow/user"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSaveLoadDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("load empty store: %v, want ErrNotFound", err)
	}

	expiry := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	saved := session.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         user.User{ID: "user-1", Email: "user@example.com", Name: "Alpha", EmailVerified: true},
		ExpiresAt:    expiry,
		LastActivity: expiry.Add(-time.Hour),
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.AccessToken != "access-1" || loaded.RefreshToken != "refresh-1" {
		t.Fatalf("tokens = %q/%q", loaded.AccessToken, loaded.RefreshToken)
	}
	if loaded.User != saved.User {
		t.Fatalf("user = %+v, want %+v", loaded.User, saved.User)
	}
	if !loaded.ExpiresAt.Equal(expiry) {
		t.Fatalf("expires at = %v, want %v", loaded.ExpiresAt, expiry)
	}

	if err := store.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("load after delete: %v, want ErrNotFound", err)
	}
}

func TestSaveReplacesPreviousSession(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	first := session.Session{AccessToken: "a1", RefreshToken: "r1", User: user.User{ID: "user-1", Email: "one@example.com"}, LastActivity: now}
	second := session.Session{AccessToken: "a2", RefreshToken: "r2", User: user.User{ID: "user-2", Email: "two@example.com"}, LastActivity: now}

	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.User.ID != "user-2" {
		t.Fatalf("user id = %q, want user-2", loaded.User.ID)
	}
	if loaded.ExpiresAt.IsZero() != true {
		t.Fatalf("expected zero expiry passthrough, got %v", loaded.ExpiresAt)
	}
}
