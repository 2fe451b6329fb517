package ports

import (
	"context"

	"strava-directus-layer/internal/domain"
)

// PlatformClient is the Strava API surface this layer consumes. Raw variants
// return the upstream JSON untouched for the passthrough routes; errors from
// 4xx/5xx responses are *domain.PlatformError.
type PlatformClient interface {
	// GetActivity fetches and decodes one activity.
	GetActivity(ctx context.Context, accessToken string, activityID int64) (*domain.Activity, error)

	// GetActivityRaw returns the upstream JSON for one activity verbatim.
	GetActivityRaw(ctx context.Context, accessToken string, activityID int64) ([]byte, error)

	// ListActivitiesRaw returns the athlete's recent activities verbatim.
	ListActivitiesRaw(ctx context.Context, accessToken string) ([]byte, error)
}
