// Package enrichment fetches the per-activity data Strava's public API does
// not expose: the exported GPX track and the athlete's private notes. The
// collaborator is an internal export service keyed by activity id.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/ports"
)

const maxBodyBytes = 16 << 20

// Client is the HTTP implementation of ports.Enrichment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ ports.Enrichment = (*Client)(nil)

// NewClient creates an enrichment client. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Fetch returns the track and notes for one activity. An empty gpx field is
// legitimate (non-GPS activity); any transport or decode failure wraps
// domain.ErrEnrichmentFetch.
func (c *Client) Fetch(ctx context.Context, activityID int64) (*domain.Enrichment, error) {
	endpoint := fmt.Sprintf("%s/full/%d", c.baseURL, activityID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEnrichmentFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEnrichmentFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEnrichmentFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Int64("activityId", activityID).
			Msg("Enrichment source returned an error")
		return nil, fmt.Errorf("%w: status %d", domain.ErrEnrichmentFetch, resp.StatusCode)
	}

	var decoded struct {
		GPX   string `json:"gpx"`
		Notes string `json:"notes"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEnrichmentFetch, err)
	}

	result := &domain.Enrichment{Notes: decoded.Notes}
	if decoded.GPX != "" {
		result.Track = []byte(decoded.GPX)
	}
	return result, nil
}
