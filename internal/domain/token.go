package domain

import (
	"context"
	"time"
)

// TokenRefreshMargin is how close to expiry a Strava token may get before the
// session guard swaps it for a fresh one.
const TokenRefreshMargin = time.Hour

// TokenBundle is the Strava OAuth access/refresh pair plus expiry. It lives in
// the browser cookie and in the per-request context; it is never persisted
// server-side.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// NeedsRefresh reports whether the bundle is inside the refresh margin.
func (t TokenBundle) NeedsRefresh(now time.Time) bool {
	return t.ExpiresAt-now.Unix() <= int64(TokenRefreshMargin/time.Second)
}

// CMSSession is the result of refreshing the CMS login session. The refresh
// token rotates on every use.
type CMSSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// Expires is the session lifetime reported by the CMS.
	Expires time.Duration `json:"-"`
}

// contextKey is a type for context keys to avoid collisions
type contextKey string

const tokenBundleKey contextKey = "strava_token_bundle"

// WithTokenBundle attaches the live OAuth bundle to the request context.
func WithTokenBundle(ctx context.Context, bundle TokenBundle) context.Context {
	return context.WithValue(ctx, tokenBundleKey, bundle)
}

// TokenBundleFromContext extracts the OAuth bundle attached by the session
// guard. ok is false when the request carried no usable bundle.
func TokenBundleFromContext(ctx context.Context) (TokenBundle, bool) {
	bundle, ok := ctx.Value(tokenBundleKey).(TokenBundle)
	return bundle, ok
}
