package ports

import (
	"context"
	"time"

	"strava-directus-layer/internal/domain"
)

// VerifyTokenStore holds the pending webhook verification token. At most one
// token is pending at a time: Put overwrites any prior value. Get returns ""
// when nothing is pending or the pending token expired.
type VerifyTokenStore interface {
	Put(ctx context.Context, token string, ttl time.Duration) error
	Get(ctx context.Context) (string, error)
}

// EventLog is the optional audit trail of webhook traffic and sync outcomes.
// Implementations must be safe to skip entirely (a nil log disables
// auditing).
type EventLog interface {
	LogWebhook(ctx context.Context, event *domain.WebhookEvent) error
	LogSync(ctx context.Context, record *domain.SyncRecord) error
}
