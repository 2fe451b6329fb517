package strava

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"context"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/ports"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// maxBodyBytes bounds upstream response reads.
const maxBodyBytes = 8 << 20

// Client calls the Strava v3 API with a bearer token. A client-side limiter
// keeps us inside Strava's per-app quota (100 requests per 15 minutes).
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

var _ ports.PlatformClient = (*Client)(nil)

// Options configures a Client. Zero values get sensible defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     zerolog.Logger
}

// NewClient creates a Strava API client.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(9*time.Second), 10)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     opts.Logger,
	}
}

// GetActivity fetches and decodes one activity, keeping the raw payload.
func (c *Client) GetActivity(ctx context.Context, accessToken string, activityID int64) (*domain.Activity, error) {
	raw, err := c.GetActivityRaw(ctx, accessToken, activityID)
	if err != nil {
		return nil, err
	}
	var activity domain.Activity
	if err := json.Unmarshal(raw, &activity); err != nil {
		return nil, fmt.Errorf("failed to decode activity %d: %w", activityID, err)
	}
	activity.Raw = raw
	return &activity, nil
}

// GetActivityRaw returns the upstream JSON for one activity verbatim.
func (c *Client) GetActivityRaw(ctx context.Context, accessToken string, activityID int64) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("/activities/%d", activityID), accessToken)
}

// ListActivitiesRaw returns the athlete's recent activities verbatim.
func (c *Client) ListActivitiesRaw(ctx context.Context, accessToken string) ([]byte, error) {
	return c.get(ctx, "/activities", accessToken)
}

func (c *Client) get(ctx context.Context, path, accessToken string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("strava request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read strava response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("Strava API returned an error")
		return nil, &domain.PlatformError{Status: resp.StatusCode, Body: body}
	}
	return body, nil
}
