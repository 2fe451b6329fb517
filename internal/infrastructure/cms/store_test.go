package cms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"strava-directus-layer/internal/domain"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewStore(StoreOptions{
		BaseURL:      server.URL,
		Collection:   "activities",
		ServiceToken: "svc-token",
		Logger:       zerolog.Nop(),
	})
}

func TestFindByActivityIDProjectsRefAndFile(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/items/activities", r.URL.Path)
		require.Equal(t, `"id":12345`, r.URL.Query().Get("filter[data][_contains]"))
		require.Equal(t, "id,files.directus_files_id.id", r.URL.Query().Get("fields"))
		require.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"id":42,"files":[{"directus_files_id":{"id":"file-7"}}]}]}`))
	})

	ref, err := store.FindByActivityID(context.Background(), 12345)
	require.NoError(t, err)
	require.NotNil(t, ref)
	require.Equal(t, "42", ref.RecordID)
	require.Equal(t, "file-7", ref.FileID)
}

func TestFindByActivityIDNoMatch(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	ref, err := store.FindByActivityID(context.Background(), 999)
	require.NoError(t, err)
	require.Nil(t, ref)
}

func TestUploadTrackCreatesNewFile(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/files", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "Morning Ride", r.FormValue("title"))
		require.Equal(t, "12345.gpx", r.FormValue("filename_download"))
		w.Write([]byte(`{"data":{"id":"file-new"}}`))
	})

	id, err := store.UploadTrack(context.Background(), domain.TrackUpload{
		Title:    "Morning Ride",
		Filename: "12345.gpx",
		Content:  []byte("<gpx/>"),
	})
	require.NoError(t, err)
	require.Equal(t, "file-new", id)
}

func TestUploadTrackReplacesExistingFile(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/files/file-7", r.URL.Path)
		w.Write([]byte(`{"data":{"id":"file-7"}}`))
	})

	id, err := store.UploadTrack(context.Background(), domain.TrackUpload{
		Title:         "Morning Ride",
		Filename:      "12345.gpx",
		Content:       []byte("<gpx/>"),
		ReplaceFileID: "file-7",
	})
	require.NoError(t, err)
	require.Equal(t, "file-7", id)
}

func TestUpsertActivityCreateAndUpdate(t *testing.T) {
	var gotMethod, gotPath string
	var gotPayload map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"data":{"id":42}}`))
	})

	item := domain.ActivityItem{
		Fields:  map[string]any{"name": "Morning Ride", "data": `{"id":12345}`},
		FileIDs: []string{"file-new"},
		Notes:   "felt strong",
	}

	key, err := store.UpsertActivity(context.Background(), item)
	require.NoError(t, err)
	require.Equal(t, "42", key)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "/items/activities", gotPath)
	require.Equal(t, "felt strong", gotPayload["notes"])
	require.Len(t, gotPayload["files"], 1)

	item.RecordID = "42"
	item.FileIDs = nil
	_, err = store.UpsertActivity(context.Background(), item)
	require.NoError(t, err)
	require.Equal(t, http.MethodPatch, gotMethod)
	require.Equal(t, "/items/activities/42", gotPath)
	require.Empty(t, gotPayload["files"])
}
