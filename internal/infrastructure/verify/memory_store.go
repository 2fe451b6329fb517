// Package verify holds the pending webhook verification token: the random
// value generated at subscription-creation time that the platform's
// handshake challenge must echo. At most one token is pending per store;
// every Put overwrites the previous value and the record is time-bounded.
package verify

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL bounds how long a pending verification token stays valid. The
// platform sends its challenge within seconds of subscription creation.
const DefaultTTL = 10 * time.Minute

// MemoryStore keeps the pending token in process memory. Safe for concurrent
// use; suitable for single-process deployments.
type MemoryStore struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewMemoryStore creates an in-memory verification-token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Put replaces the pending token.
func (s *MemoryStore) Put(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = s.now().Add(ttl)
	return nil
}

// Get returns the pending token, or "" when none is pending or it expired.
func (s *MemoryStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || s.now().After(s.expiresAt) {
		return "", nil
	}
	return s.token, nil
}
