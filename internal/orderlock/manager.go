// Package orderlock serializes conflicting lifecycle transitions on
// the same order.  Each order serial number maps to one lock; the
// lock never spans multiple orders and is released on every exit
// path, business rejection and panic included.
package orderlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrContended is returned by a non-blocking acquire when another
// transition on the same order is in flight.  Callers surface it as a
// client-visible conflict, never as an internal error.
var ErrContended = errors.New("order lock contended")

// Store is the mutual-exclusion primitive behind the manager.
// Acquire is a single conditional set: it succeeds only when nobody
// holds key.  Release must be token-checked so an expired holder can
// never free a successor's lock.
type Store interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

// Manager wraps order lifecycle transitions in per-order mutual
// exclusion.
type Manager struct {
	store         Store
	ttl           time.Duration
	retryInterval time.Duration
}

// NewManager builds a Manager over the given store.  ttl bounds how
// long a crashed holder can block an order; retryInterval paces
// blocking acquisition.
func NewManager(store Store, ttl, retryInterval time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 50 * time.Millisecond
	}
	return &Manager{store: store, ttl: ttl, retryInterval: retryInterval}
}

func lockKey(orderSN string) string {
	return "order:lock:" + orderSN
}

// WithOrderLock runs fn while holding the lifecycle lock of one
// order.  In non-blocking mode a held lock returns ErrContended
// immediately; in blocking mode acquisition retries until the lock is
// free or ctx expires, which also surfaces as ErrContended.  The lock
// is released when fn returns, whatever the outcome, and the deferred
// release also runs if fn panics.
func (m *Manager) WithOrderLock(ctx context.Context, orderSN string, blocking bool, fn func() error) error {
	key := lockKey(orderSN)
	token := uuid.NewString()

	acquired, err := m.store.Acquire(ctx, key, token, m.ttl)
	if err != nil {
		return fmt.Errorf("acquire order lock %s: %w", orderSN, err)
	}
	for !acquired {
		if !blocking {
			return fmt.Errorf("order %s: %w", orderSN, ErrContended)
		}
		if !wait(ctx, m.retryInterval) {
			return fmt.Errorf("order %s: %w: %v", orderSN, ErrContended, ctx.Err())
		}
		acquired, err = m.store.Acquire(ctx, key, token, m.ttl)
		if err != nil {
			return fmt.Errorf("acquire order lock %s: %w", orderSN, err)
		}
	}

	defer func() {
		// Release must not depend on the caller's context still being
		// alive.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.store.Release(rctx, key, token)
	}()
	return fn()
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
