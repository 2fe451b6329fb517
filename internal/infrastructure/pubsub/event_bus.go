// Package pubsub decouples the webhook acknowledgment from activity
// resolution: the HTTP handler publishes the event and returns immediately,
// the sync worker consumes from its subscription.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/domain"
)

// EventChannel is one subscription to the webhook event stream.
type EventChannel struct {
	ID     string
	Events chan *domain.WebhookEvent
	ctx    context.Context
	cancel context.CancelFunc
}

// EventBus fans webhook events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full loses the event with a warning, matching
// the no-retry contract of the webhook path.
type EventBus struct {
	mu       sync.RWMutex
	channels map[string]*EventChannel
	logger   zerolog.Logger
	nextID   int64
}

// NewEventBus creates an event bus.
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		channels: make(map[string]*EventChannel),
		logger:   logger,
	}
}

// Subscribe creates a subscription that lives until ctx is cancelled.
func (b *EventBus) Subscribe(ctx context.Context) *EventChannel {
	subCtx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	b.nextID++
	channel := &EventChannel{
		ID:     fmt.Sprintf("channel-%d", b.nextID),
		Events: make(chan *domain.WebhookEvent, 64),
		ctx:    subCtx,
		cancel: cancel,
	}
	b.channels[channel.ID] = channel
	b.mu.Unlock()

	b.logger.Info().Str("channelId", channel.ID).Msg("Webhook event subscription created")

	go func() {
		<-subCtx.Done()
		b.Unsubscribe(channel.ID)
	}()

	return channel
}

// Unsubscribe removes a subscription and closes its channel.
func (b *EventBus) Unsubscribe(channelID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channel, exists := b.channels[channelID]
	if !exists {
		return
	}
	close(channel.Events)
	channel.cancel()
	delete(b.channels, channelID)

	b.logger.Info().Str("channelId", channelID).Msg("Webhook event subscription removed")
}

// Publish broadcasts an event to all subscribers without blocking.
func (b *EventBus) Publish(event *domain.WebhookEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, channel := range b.channels {
		select {
		case channel.Events <- event:
		case <-channel.ctx.Done():
		default:
			b.logger.Warn().
				Str("channelId", channel.ID).
				Int64("objectId", event.ObjectID).
				Msg("Subscriber buffer full, dropping webhook event")
		}
	}
}
