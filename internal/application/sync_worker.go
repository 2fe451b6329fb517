package application

import (
	"context"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/infrastructure/metrics"
	"strava-directus-layer/internal/infrastructure/pubsub"
	"strava-directus-layer/internal/ports"
)

// SyncWorker consumes webhook events off the bus and dispatches them. It is
// the asynchronous half of the webhook contract: the HTTP handler has long
// since acknowledged by the time an event reaches here, so failures go to
// the log and the failure counter only.
type SyncWorker struct {
	bus        *pubsub.EventBus
	dispatcher *WebhookDispatcher
	eventLog   ports.EventLog
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewSyncWorker creates a worker. eventLog may be nil.
func NewSyncWorker(bus *pubsub.EventBus, dispatcher *WebhookDispatcher, eventLog ports.EventLog, m *metrics.Metrics, logger zerolog.Logger) *SyncWorker {
	return &SyncWorker{
		bus:        bus,
		dispatcher: dispatcher,
		eventLog:   eventLog,
		metrics:    m,
		logger:     logger,
	}
}

// Run blocks consuming events until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) {
	channel := w.bus.Subscribe(ctx)
	for event := range channel.Events {
		w.logger.Info().
			Str("aspect", event.AspectType).
			Str("object", event.ObjectType).
			Int64("objectId", event.ObjectID).
			Msg("Webhook event received")

		if w.metrics != nil {
			w.metrics.WebhookEvents.WithLabelValues(event.AspectType, event.ObjectType).Inc()
		}
		if w.eventLog != nil {
			if err := w.eventLog.LogWebhook(ctx, event); err != nil {
				w.logger.Warn().Err(err).Msg("Failed to write webhook audit record")
			}
		}

		if err := w.dispatcher.Dispatch(ctx, event); err != nil {
			w.logger.Error().
				Err(err).
				Int64("objectId", event.ObjectID).
				Msg("Webhook-triggered sync failed")
		}
	}
}
