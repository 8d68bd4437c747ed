package session

import (
	"sync"
)

// Store holds the current tenant claims of the running client. The value is
// replaced wholesale, never patched, so concurrent readers cannot observe a
// torn claim set. All mutation goes through the Controller; every other
// component is a read-only observer.
type Store struct {
	mu          sync.RWMutex
	claims      TenantClaims
	version     uint64
	subscribers []func(TenantClaims)
}

// NewStore returns an empty claims store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the claims held right now, nil when the session has none.
func (s *Store) Current() TenantClaims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// Version increments on every replacement, including clears. Useful for
// idempotence checks by observers.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Replace swaps in a full claims value atomically and notifies subscribers.
// Passing nil clears the store.
func (s *Store) Replace(claims TenantClaims) {
	s.mu.Lock()
	s.claims = claims
	s.version++
	subscribers := make([]func(TenantClaims), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	// Subscribers run outside the lock so they can read the store.
	for _, fn := range subscribers {
		if fn != nil {
			fn(claims)
		}
	}
}

// Clear drops the current claims.
func (s *Store) Clear() {
	s.Replace(nil)
}

// Subscribe registers an observer invoked after every replacement. The
// returned function detaches it.
func (s *Store) Subscribe(fn func(TenantClaims)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	idx := len(s.subscribers) - 1
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if idx < len(s.subscribers) {
				s.subscribers[idx] = nil
				// compact trailing nils
				for len(s.subscribers) > 0 && s.subscribers[len(s.subscribers)-1] == nil {
					s.subscribers = s.subscribers[:len(s.subscribers)-1]
				}
			}
		})
	}
}
