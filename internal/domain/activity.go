package domain

import (
	"encoding/json"
	"time"
)

// Activity is the subset of Strava's activity model this layer maps into the
// content store. Raw keeps the full payload exactly as the API returned it;
// the store's data field holds that payload so records stay matchable by the
// embedded activity id.
type Activity struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	SportType          string  `json:"sport_type"`
	Distance           float64 `json:"distance"`
	MovingTime         int64   `json:"moving_time"`
	ElapsedTime        int64   `json:"elapsed_time"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	StartDate          string  `json:"start_date"`
	Timezone           string  `json:"timezone"`
	AverageSpeed       float64 `json:"average_speed"`
	MaxSpeed           float64 `json:"max_speed"`
	AverageHeartrate   float64 `json:"average_heartrate"`
	MaxHeartrate       float64 `json:"max_heartrate"`

	Raw json.RawMessage `json:"-"`
}

// ActivityRef locates an existing store record for an activity id: the record
// key plus the id of any track file already attached to it.
type ActivityRef struct {
	RecordID string
	FileID   string
}

// TrackUpload is a GPX blob destined for the store's file service. When
// ReplaceFileID is set the upload replaces that attachment in place instead
// of creating a second one.
type TrackUpload struct {
	Title         string
	Filename      string
	Content       []byte
	ReplaceFileID string
}

// ActivityItem is the record written to the content store by an upsert. An
// empty RecordID means create; otherwise the existing record is updated in
// place.
type ActivityItem struct {
	RecordID string
	Fields   map[string]any
	FileIDs  []string
	Notes    string
}

// Enrichment is the data unavailable from the public API: the GPX track (may
// legitimately be empty for non-GPS activities) and free-text notes.
type Enrichment struct {
	Track []byte
	Notes string
}

// SyncRecord is one resolution outcome for the audit log.
type SyncRecord struct {
	ActivityID int64         `bson:"activity_id"`
	RecordID   string        `bson:"record_id,omitempty"`
	Trigger    string        `bson:"trigger"`
	Error      string        `bson:"error,omitempty"`
	Duration   time.Duration `bson:"duration_ns"`
}

// Sync triggers recorded in the audit log.
const (
	TriggerWebhook = "webhook"
	TriggerManual  = "manual"
)
