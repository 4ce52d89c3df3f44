package orderlock

import (
	"context"
	"sync"
	"time"
)

type heldLock struct {
	token     string
	expiresAt time.Time
}

// MemoryStore is a process-local Store for tests and single-instance
// deployments.  Semantics match the redis store: conditional acquire,
// TTL expiry, token-checked release.
type MemoryStore struct {
	mu    sync.Mutex
	locks map[string]heldLock
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locks: make(map[string]heldLock)}
}

// Acquire implements Store.
func (s *MemoryStore) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.locks[key]; ok && time.Now().Before(held.expiresAt) {
		return false, nil
	}
	s.locks[key] = heldLock{token: token, expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// Release implements Store.
func (s *MemoryStore) Release(ctx context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.locks[key]; ok && held.token == token {
		delete(s.locks, key)
	}
	return nil
}
