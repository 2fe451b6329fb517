package webhook_handlers

import (
	"context"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/application"
	"strava-directus-layer/internal/domain"
)

// ActivityHandler resolves activity create/update events. Delete events and
// non-activity objects are left for the dispatcher to drop.
type ActivityHandler struct {
	sync   *application.ActivitySyncService
	tokens *application.TokenCache
	logger zerolog.Logger
}

// NewActivityHandler creates an activity webhook handler.
func NewActivityHandler(sync *application.ActivitySyncService, tokens *application.TokenCache, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		sync:   sync,
		tokens: tokens,
		logger: logger,
	}
}

// CanHandle returns true for activity create/update events.
func (h *ActivityHandler) CanHandle(event *domain.WebhookEvent) bool {
	return event.TriggersSync()
}

// Handle resolves the activity with the cached live bundle. A missing token
// means no browser session has authenticated since the process started; the
// sync is skipped, not retried.
func (h *ActivityHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	bundle, ok := h.tokens.Get()
	if !ok {
		h.logger.Warn().
			Int64("activityId", event.ObjectID).
			Msg("Skipping webhook sync: no live OAuth token cached")
		return domain.ErrNoToken
	}

	key, err := h.sync.Resolve(ctx, event.ObjectID, bundle, domain.TriggerWebhook)
	if err != nil {
		return err
	}
	h.logger.Info().
		Int64("activityId", event.ObjectID).
		Str("recordId", key).
		Msg("Webhook-triggered sync completed")
	return nil
}
