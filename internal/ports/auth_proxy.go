package ports

import (
	"context"

	"strava-directus-layer/internal/domain"
)

// AuthProxy is the external façade that owns the long-lived OAuth client
// secrets and the push subscription on our behalf. Subscription payloads are
// passed through as raw JSON; view/create/delete results are logged, not
// interpreted.
type AuthProxy interface {
	// Refresh trades a refresh token for a fresh bundle.
	Refresh(ctx context.Context, refreshToken string) (domain.TokenBundle, error)

	// Exchange trades an authorization code for a bundle.
	Exchange(ctx context.Context, code string) (domain.TokenBundle, error)

	// CreateSubscription registers a push subscription pointing at
	// callbackURL, verified with verifyToken.
	CreateSubscription(ctx context.Context, callbackURL, verifyToken string) ([]byte, error)

	// ListSubscriptions returns the façade's current subscription listing.
	ListSubscriptions(ctx context.Context) ([]byte, error)

	// DeleteSubscription removes a subscription by id.
	DeleteSubscription(ctx context.Context, id string) ([]byte, error)
}
