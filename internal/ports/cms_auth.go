package ports

import (
	"context"

	"strava-directus-layer/internal/domain"
)

// CMSAuth refreshes the host CMS's own login session. The presented refresh
// token is invalidated and a rotated one comes back in the session.
type CMSAuth interface {
	Refresh(ctx context.Context, refreshToken string) (*domain.CMSSession, error)
}
