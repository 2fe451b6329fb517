// Package cms holds the adapters for the host CMS: the authentication
// endpoint that rotates the login session, and the item/file storage the
// resolver writes activities into.
package cms

import (
	"bytes"
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

const maxBodyBytes = 1 << 20

// AuthClient refreshes the CMS login session over its REST API.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ ports.CMSAuth = (*AuthClient)(nil)

// NewAuthClient creates a CMS auth client. httpClient may be nil.
func NewAuthClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *AuthClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AuthClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// LoginURL is where requests without a valid CMS session are redirected.
func (c *AuthClient) LoginURL() string {
	return c.baseURL + "/admin/login"
}

// Refresh rotates the CMS session. The presented refresh token is invalidated
// by the CMS; the rotated one comes back in the session. An invalid or
// expired token fails with domain.ErrSessionExpired.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (*domain.CMSSession, error) {
	payload, _ := json.Marshal(map[string]string{
		"refresh_token": refreshToken,
		"mode":          "json",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read cms refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("CMS session refresh rejected")
		return nil, fmt.Errorf("%w: status %d", domain.ErrSessionExpired, resp.StatusCode)
	}

	var decoded struct {
		Data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			Expires      int64  `json:"expires"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode cms refresh response: %w", err)
	}
	if decoded.Data.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token in response", domain.ErrSessionExpired)
	}

	return &domain.CMSSession{
		AccessToken:  decoded.Data.AccessToken,
		RefreshToken: decoded.Data.RefreshToken,
		Expires:      time.Duration(decoded.Data.Expires) * time.Millisecond,
	}, nil
}
