package domain

import "time"

// Webhook aspect types delivered by Strava's push subscription API.
const (
	AspectCreate = "create"
	AspectUpdate = "update"
	AspectDelete = "delete"

	ObjectActivity = "activity"
)

// WebhookEvent is one change notification from Strava. Events are transient:
// they trigger a resolution and are only retained by the optional audit log.
type WebhookEvent struct {
	AspectType string    `json:"aspect_type" bson:"aspect_type"`
	ObjectType string    `json:"object_type" bson:"object_type"`
	OwnerID    int64     `json:"owner_id" bson:"owner_id"`
	ObjectID   int64     `json:"object_id" bson:"object_id"`
	EventTime  int64     `json:"event_time,omitempty" bson:"event_time,omitempty"`
	ReceivedAt time.Time `json:"-" bson:"received_at"`
}

// TriggersSync reports whether the event should start an activity resolution.
// Delete events and non-activity objects are dropped.
func (e WebhookEvent) TriggersSync() bool {
	return (e.AspectType == AspectCreate || e.AspectType == AspectUpdate) &&
		e.ObjectType == ObjectActivity
}
