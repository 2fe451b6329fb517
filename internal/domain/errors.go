package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. The CMS session gates hard; everything third-party degrades
// soft and is logged by the caller.
var (
	// ErrMalformedToken means the OAuth bundle cookie could not be decoded.
	// Callers treat it as "no usable session", never as a fatal error.
	ErrMalformedToken = errors.New("malformed token bundle")

	// ErrSessionExpired means the CMS rejected the refresh token; the user is
	// redirected to login, never retried.
	ErrSessionExpired = errors.New("cms session expired")

	// ErrTokenRefreshFailed means the auth proxy could not refresh the Strava
	// bundle; the request proceeds tokenless.
	ErrTokenRefreshFailed = errors.New("oauth token refresh failed")

	// ErrNoToken means a resolution was attempted with no live bundle
	// available anywhere.
	ErrNoToken = errors.New("no oauth token available")

	// ErrEnrichmentFetch aborts a resolution when the enrichment collaborator
	// fails.
	ErrEnrichmentFetch = errors.New("enrichment fetch failed")

	// ErrUpload and ErrUpsert abort a resolution on content-store failures.
	ErrUpload = errors.New("track upload failed")
	ErrUpsert = errors.New("activity upsert failed")
)

// PlatformError is a 4xx/5xx from the Strava API. Passthrough routes surface
// Status and Body to the caller verbatim; background resolutions abort and
// log it.
type PlatformError struct {
	Status int
	Body   []byte
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("strava api error: status %d: %s", e.Status, truncate(e.Body, 256))
}

// AsPlatformError unwraps err to a *PlatformError if one is in the chain.
func AsPlatformError(err error) (*PlatformError, bool) {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
