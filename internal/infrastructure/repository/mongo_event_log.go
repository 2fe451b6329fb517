package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/ports"
)

// MongoEventLog implements ports.EventLog using MongoDB. It is the optional
// audit trail of webhook traffic and sync outcomes; nothing in the sync path
// depends on it.
type MongoEventLog struct {
	webhooksCollection *mongo.Collection
	syncsCollection    *mongo.Collection
}

var _ ports.EventLog = (*MongoEventLog)(nil)

// NewMongoEventLog creates a MongoDB event log.
func NewMongoEventLog(db *mongo.Database) *MongoEventLog {
	return &MongoEventLog{
		webhooksCollection: db.Collection("webhook_events"),
		syncsCollection:    db.Collection("sync_results"),
	}
}

type webhookDoc struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	Event      domain.WebhookEvent `bson:"event"`
	ReceivedAt time.Time           `bson:"received_at"`
}

type syncDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Record     domain.SyncRecord  `bson:"record"`
	FinishedAt time.Time          `bson:"finished_at"`
}

// LogWebhook records one received webhook event.
func (l *MongoEventLog) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	doc := webhookDoc{Event: *event, ReceivedAt: event.ReceivedAt}
	if doc.ReceivedAt.IsZero() {
		doc.ReceivedAt = time.Now()
	}

	_, err := l.webhooksCollection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}
	return nil
}

// LogSync records one resolution outcome.
func (l *MongoEventLog) LogSync(ctx context.Context, record *domain.SyncRecord) error {
	doc := syncDoc{Record: *record, FinishedAt: time.Now()}

	_, err := l.syncsCollection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to log sync result: %w", err)
	}
	return nil
}

// RecentFailures returns the latest failed sync records, newest first. Used
// for operational inspection, never by the sync path.
func (l *MongoEventLog) RecentFailures(ctx context.Context, limit int64) ([]domain.SyncRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "finished_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := l.syncsCollection.Find(ctx, bson.M{"record.error": bson.M{"$ne": ""}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync failures: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.SyncRecord
	for cursor.Next(ctx) {
		var doc syncDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode sync record: %w", err)
		}
		records = append(records, doc.Record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return records, nil
}
