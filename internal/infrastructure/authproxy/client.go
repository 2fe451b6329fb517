// Package authproxy talks to the external auth-proxy façade: the microservice
// that owns the OAuth client secrets and brokers token refresh/exchange and
// push-subscription management against Strava on our behalf.
package authproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/ports"
)

const maxBodyBytes = 1 << 20

// Client is the HTTP implementation of ports.AuthProxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ ports.AuthProxy = (*Client)(nil)

// NewClient creates an auth-proxy client. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Refresh trades a refresh token for a fresh bundle.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.TokenBundle, error) {
	query := url.Values{"refresh_token": {refreshToken}}
	body, err := c.do(ctx, http.MethodGet, "/refresh", query)
	if err != nil {
		return domain.TokenBundle{}, fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	return decodeBundle(body)
}

// Exchange trades an authorization code for a bundle. The façade reports auth
// failures as an errors array in the body.
func (c *Client) Exchange(ctx context.Context, code string) (domain.TokenBundle, error) {
	query := url.Values{"code": {code}}
	body, err := c.do(ctx, http.MethodGet, "/auth", query)
	if err != nil {
		return domain.TokenBundle{}, fmt.Errorf("code exchange failed: %w", err)
	}
	var probe struct {
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && len(probe.Errors) > 0 {
		return domain.TokenBundle{}, fmt.Errorf("code exchange rejected: %s", body)
	}
	return decodeBundle(body)
}

// CreateSubscription registers a push subscription with the façade.
func (c *Client) CreateSubscription(ctx context.Context, callbackURL, verifyToken string) ([]byte, error) {
	query := url.Values{
		"callback_url": {callbackURL},
		"verify_token": {verifyToken},
	}
	return c.do(ctx, http.MethodPost, "/subscription", query)
}

// ListSubscriptions returns the façade's current subscription listing.
func (c *Client) ListSubscriptions(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/subscription", nil)
}

// DeleteSubscription removes a subscription by id.
func (c *Client) DeleteSubscription(ctx context.Context, id string) ([]byte, error) {
	query := url.Values{"id": {id}}
	return c.do(ctx, http.MethodDelete, "/subscription", query)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read auth proxy response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("Auth proxy returned an error")
		return nil, fmt.Errorf("auth proxy error: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

func decodeBundle(body []byte) (domain.TokenBundle, error) {
	var bundle domain.TokenBundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return domain.TokenBundle{}, fmt.Errorf("failed to decode token bundle: %w", err)
	}
	if bundle.AccessToken == "" {
		return domain.TokenBundle{}, fmt.Errorf("token bundle missing access token")
	}
	return bundle, nil
}
