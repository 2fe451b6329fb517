package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/infrastructure/metrics"
	"strava-directus-layer/internal/ports"
)

// ActivityMapper maps platform activity fields onto the content store's
// schema. The store's field names are deployment configuration, so the
// mapping is injectable; DefaultActivityMapper matches the reference schema.
type ActivityMapper func(activity *domain.Activity) map[string]any

// DefaultActivityMapper writes the common activity fields plus the raw
// platform payload into the data field the lookup scans.
func DefaultActivityMapper(activity *domain.Activity) map[string]any {
	return map[string]any{
		"name":           activity.Name,
		"sport":          activity.SportType,
		"distance":       activity.Distance,
		"moving_time":    activity.MovingTime,
		"elapsed_time":   activity.ElapsedTime,
		"elevation_gain": activity.TotalElevationGain,
		"start_date":     activity.StartDate,
		"timezone":       activity.Timezone,
		"average_speed":  activity.AverageSpeed,
		"max_speed":      activity.MaxSpeed,
		"data":           string(activity.Raw),
	}
}

// ActivitySyncService is the resolver: given an activity id and a live OAuth
// bundle it fetches platform data, fetches enrichment data, locates any
// existing matching record and performs the merge-upsert. Re-resolving the
// same id converges to one record with the latest data.
type ActivitySyncService struct {
	store      ports.ContentStore
	platform   ports.PlatformClient
	enrichment ports.Enrichment
	eventLog   ports.EventLog
	mapper     ActivityMapper
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewActivitySyncService creates the resolver. eventLog may be nil to
// disable auditing; mapper nil falls back to DefaultActivityMapper.
func NewActivitySyncService(
	store ports.ContentStore,
	platform ports.PlatformClient,
	enrichment ports.Enrichment,
	eventLog ports.EventLog,
	mapper ActivityMapper,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ActivitySyncService {
	if mapper == nil {
		mapper = DefaultActivityMapper
	}
	return &ActivitySyncService{
		store:      store,
		platform:   platform,
		enrichment: enrichment,
		eventLog:   eventLog,
		mapper:     mapper,
		metrics:    m,
		logger:     logger,
	}
}

// Resolve runs one end-to-end resolution and returns the store's record key.
// The outcome is counted, timed, and written to the audit log; errors come
// back typed so the caller can decide whether to surface or just log them.
func (s *ActivitySyncService) Resolve(ctx context.Context, activityID int64, bundle domain.TokenBundle, trigger string) (string, error) {
	start := time.Now()
	key, err := s.resolve(ctx, activityID, bundle)
	elapsed := time.Since(start)

	result := "success"
	record := &domain.SyncRecord{
		ActivityID: activityID,
		RecordID:   key,
		Trigger:    trigger,
		Duration:   elapsed,
	}
	if err != nil {
		result = "failure"
		record.Error = err.Error()
	}

	if s.metrics != nil {
		s.metrics.Resolutions.WithLabelValues(trigger, result).Inc()
		s.metrics.ResolutionTime.Observe(elapsed.Seconds())
	}
	if s.eventLog != nil {
		if logErr := s.eventLog.LogSync(ctx, record); logErr != nil {
			s.logger.Warn().Err(logErr).Int64("activityId", activityID).Msg("Failed to write sync audit record")
		}
	}
	return key, err
}

func (s *ActivitySyncService) resolve(ctx context.Context, activityID int64, bundle domain.TokenBundle) (string, error) {
	if bundle.AccessToken == "" {
		return "", domain.ErrNoToken
	}

	// Look up any existing record for this activity id. First match only;
	// the upsert below is what keeps the collection at one record per id.
	ref, err := s.store.FindByActivityID(ctx, activityID)
	if err != nil {
		return "", fmt.Errorf("lookup for activity %d: %w", activityID, err)
	}

	activity, err := s.platform.GetActivity(ctx, bundle.AccessToken, activityID)
	if err != nil {
		return "", err
	}

	enriched, err := s.enrichment.Fetch(ctx, activityID)
	if err != nil {
		return "", err
	}

	var fileIDs []string
	if len(enriched.Track) > 0 {
		upload := domain.TrackUpload{
			Title:    activity.Name,
			Filename: fmt.Sprintf("%d.gpx", activityID),
			Content:  enriched.Track,
		}
		if ref != nil {
			upload.ReplaceFileID = ref.FileID
		}
		fileID, err := s.store.UploadTrack(ctx, upload)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUpload, err)
		}
		fileIDs = []string{fileID}
	}

	item := domain.ActivityItem{
		Fields:  s.mapper(activity),
		FileIDs: fileIDs,
		Notes:   enriched.Notes,
	}
	if ref != nil {
		item.RecordID = ref.RecordID
	}

	key, err := s.store.UpsertActivity(ctx, item)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpsert, err)
	}

	s.logger.Info().
		Int64("activityId", activityID).
		Str("recordId", key).
		Bool("hasTrack", len(fileIDs) > 0).
		Msg("Activity synchronized")
	return key, nil
}
