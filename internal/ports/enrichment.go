package ports

import (
	"context"

	"strava-directus-layer/internal/domain"
)

// Enrichment fetches the data the public API does not expose: the GPX track
// and free-text notes. A nil Track is legitimate (non-GPS activity).
type Enrichment interface {
	Fetch(ctx context.Context, activityID int64) (*domain.Enrichment, error)
}
