package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"strava-directus-layer/internal/domain"
)

func TestFetchReturnsTrackAndNotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/full/42", r.URL.Path)
		fmt.Fprint(w, `{"gpx":"<gpx/>","notes":"windy but fun"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())
	got, err := client.Fetch(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, []byte("<gpx/>"), got.Track)
	require.Equal(t, "windy but fun", got.Notes)
}

func TestFetchWithoutTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"gpx":"","notes":"treadmill intervals"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())
	got, err := client.Fetch(context.Background(), 7)
	require.NoError(t, err)
	require.Nil(t, got.Track)
	require.Equal(t, "treadmill intervals", got.Notes)
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "export failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())
	_, err := client.Fetch(context.Background(), 7)
	require.ErrorIs(t, err, domain.ErrEnrichmentFetch)
}

func TestFetchUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil, zerolog.Nop())
	_, err := client.Fetch(context.Background(), 7)
	require.ErrorIs(t, err, domain.ErrEnrichmentFetch)
}
