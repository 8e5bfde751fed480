package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the session in process memory. It is the default store
// for tests and for hosts that handle persistence elsewhere.
type MemoryStore struct {
	mu      sync.Mutex
	current *Session
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := s
	m.current = &copied
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, ErrNotFound
	}
	return *m.current, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}
