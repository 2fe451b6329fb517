package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/ports"
)

// Store implements ports.ContentStore against the CMS's items and files REST
// endpoints, authenticated with a static service token.
type Store struct {
	baseURL      string
	collection   string
	serviceToken string
	httpClient   *http.Client
	logger       zerolog.Logger
}

var _ ports.ContentStore = (*Store)(nil)

// StoreOptions configures a Store.
type StoreOptions struct {
	BaseURL      string
	Collection   string
	ServiceToken string
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

// NewStore creates a content-store adapter.
func NewStore(opts StoreOptions) *Store {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Store{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		collection:   opts.Collection,
		serviceToken: opts.ServiceToken,
		httpClient:   httpClient,
		logger:       opts.Logger,
	}
}

// FindByActivityID scans the collection for a record whose data field
// contains `"id":<activityID>`, projecting record id and first attached file
// id. Only the first match is used; the upsert keeps the collection at one
// record per activity id.
func (s *Store) FindByActivityID(ctx context.Context, activityID int64) (*domain.ActivityRef, error) {
	query := url.Values{
		"filter[data][_contains]": {fmt.Sprintf(`"id":%d`, activityID)},
		"fields":                  {"id,files.directus_files_id.id"},
		"limit":                   {"1"},
	}
	endpoint := fmt.Sprintf("%s/items/%s?%s", s.baseURL, s.collection, query.Encode())

	body, err := s.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, fmt.Errorf("activity lookup failed: %w", err)
	}

	var decoded struct {
		Data []struct {
			ID    json.Number `json:"id"`
			Files []struct {
				File struct {
					ID string `json:"id"`
				} `json:"directus_files_id"`
			} `json:"files"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, nil
	}

	ref := &domain.ActivityRef{RecordID: decoded.Data[0].ID.String()}
	if len(decoded.Data[0].Files) > 0 {
		ref.FileID = decoded.Data[0].Files[0].File.ID
	}
	return ref, nil
}

// UploadTrack stores the GPX blob through the file service. With
// ReplaceFileID set the existing attachment is patched in place, keeping its
// identity, instead of creating a second file.
func (s *Store) UploadTrack(ctx context.Context, upload domain.TrackUpload) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":             upload.Title,
		"filename_download": upload.Filename,
		"storage":           "local",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("failed to write form field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", upload.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return "", fmt.Errorf("failed to write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	method := http.MethodPost
	endpoint := s.baseURL + "/files"
	if upload.ReplaceFileID != "" {
		method = http.MethodPatch
		endpoint += "/" + url.PathEscape(upload.ReplaceFileID)
	}

	body, err := s.do(ctx, method, endpoint, writer.FormDataContentType(), &buf)
	if err != nil {
		return "", fmt.Errorf("track upload failed: %w", err)
	}

	var decoded struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if decoded.Data.ID == "" {
		return "", fmt.Errorf("upload response missing file id")
	}
	return decoded.Data.ID, nil
}

// UpsertActivity writes the record: create when item.RecordID is empty,
// update in place otherwise. Returns the record key.
func (s *Store) UpsertActivity(ctx context.Context, item domain.ActivityItem) (string, error) {
	payload := make(map[string]any, len(item.Fields)+2)
	for k, v := range item.Fields {
		payload[k] = v
	}
	files := make([]map[string]string, 0, len(item.FileIDs))
	for _, id := range item.FileIDs {
		files = append(files, map[string]string{"directus_files_id": id})
	}
	payload["files"] = files
	payload["notes"] = item.Notes

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode item: %w", err)
	}

	method := http.MethodPost
	endpoint := fmt.Sprintf("%s/items/%s", s.baseURL, s.collection)
	if item.RecordID != "" {
		method = http.MethodPatch
		endpoint += "/" + url.PathEscape(item.RecordID)
	}

	body, err := s.do(ctx, method, endpoint, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("activity upsert failed: %w", err)
	}

	var decoded struct {
		Data struct {
			ID json.Number `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode upsert response: %w", err)
	}
	return decoded.Data.ID.String(), nil
}

func (s *Store) do(ctx context.Context, method, endpoint, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content store request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read content store response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warn().
			Int("status", resp.StatusCode).
			Str("method", method).
			Msg("Content store returned an error")
		return nil, fmt.Errorf("content store error: status %d: %s", resp.StatusCode, data)
	}
	return data, nil
}
