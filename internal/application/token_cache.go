package application

import (
	"sync"
	"time"

	"strava-directus-layer/internal/domain"
)

// TokenCache holds the most recent live OAuth bundle seen by any request's
// session guard, so webhook-triggered resolutions have a token to work with.
// Process memory only; the bundle is never persisted server-side.
type TokenCache struct {
	mu     sync.RWMutex
	bundle domain.TokenBundle
	set    bool
}

// NewTokenCache creates an empty cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Set replaces the cached bundle.
func (c *TokenCache) Set(bundle domain.TokenBundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundle = bundle
	c.set = true
}

// Get returns the cached bundle. ok is false when nothing was cached yet or
// the cached bundle is already past its expiry.
func (c *TokenCache) Get() (domain.TokenBundle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set || c.bundle.ExpiresAt <= time.Now().Unix() {
		return domain.TokenBundle{}, false
	}
	return c.bundle, true
}
