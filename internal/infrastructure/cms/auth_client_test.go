package cms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"strava-directus-layer/internal/domain"
)

func TestRefreshRotatesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ref-old", body["refresh_token"])
		w.Write([]byte(`{"data":{"access_token":"acc","refresh_token":"ref-new","expires":900000}}`))
	}))
	t.Cleanup(server.Close)

	client := NewAuthClient(server.URL, nil, zerolog.Nop())
	session, err := client.Refresh(context.Background(), "ref-old")
	require.NoError(t, err)
	require.Equal(t, "ref-new", session.RefreshToken)
	require.Equal(t, 15*time.Minute, session.Expires)
}

func TestRefreshRejectionIsSessionExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := NewAuthClient(server.URL, nil, zerolog.Nop())
	_, err := client.Refresh(context.Background(), "stale")
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrSessionExpired))
}
