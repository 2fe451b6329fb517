package ports

import (
	"context"

	"strava-directus-layer/internal/domain"
)

// ContentStore is the CMS's generic item/file storage, reduced to the three
// capabilities the resolver needs. The store is assumed to hold at most one
// logical record per activity id; the upsert preserves that invariant, the
// store never enforces it.
type ContentStore interface {
	// FindByActivityID scans for a record whose data field textually contains
	// `"id":<activityID>`, projecting the record id and the first attached
	// file id. Returns nil when no record matches.
	FindByActivityID(ctx context.Context, activityID int64) (*domain.ActivityRef, error)

	// UploadTrack stores a GPX blob, replacing the prior attachment in place
	// when upload.ReplaceFileID is set. Returns the file id.
	UploadTrack(ctx context.Context, upload domain.TrackUpload) (string, error)

	// UpsertActivity creates or updates the record and returns its key.
	UpsertActivity(ctx context.Context, item domain.ActivityItem) (string, error)
}
