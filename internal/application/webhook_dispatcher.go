package application

import (
	"context"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/domain"
)

// WebhookHandler processes one class of webhook events.
type WebhookHandler interface {
	CanHandle(event *domain.WebhookEvent) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes webhook events to registered handlers. Events no
// handler claims are logged and dropped; there is no retry channel back to
// the platform.
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates an empty dispatcher.
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler.
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Dispatch hands the event to the first handler that claims it.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	for _, handler := range d.handlers {
		if handler.CanHandle(event) {
			return handler.Handle(ctx, event)
		}
	}
	d.logger.Info().
		Str("aspect", event.AspectType).
		Str("object", event.ObjectType).
		Int64("objectId", event.ObjectID).
		Msg("Webhook event dropped: no handler")
	return nil
}
