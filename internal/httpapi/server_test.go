package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"strava-directus-layer/internal/application"
	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/infrastructure/middleware"
	"strava-directus-layer/internal/infrastructure/pubsub"
	"strava-directus-layer/internal/infrastructure/verify"
	"strava-directus-layer/internal/ports"
)

type fakeStore struct {
	ref     *domain.ActivityRef
	upserts int
}

func (s *fakeStore) FindByActivityID(ctx context.Context, activityID int64) (*domain.ActivityRef, error) {
	return s.ref, nil
}

func (s *fakeStore) UploadTrack(ctx context.Context, upload domain.TrackUpload) (string, error) {
	return "file-1", nil
}

func (s *fakeStore) UpsertActivity(ctx context.Context, item domain.ActivityItem) (string, error) {
	s.upserts++
	return "rec-1", nil
}

type fakePlatform struct {
	raw     []byte
	listRaw []byte
	err     error
	calls   int
}

func (p *fakePlatform) GetActivity(ctx context.Context, accessToken string, activityID int64) (*domain.Activity, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &domain.Activity{ID: activityID, Name: "Morning Ride", Raw: p.raw}, nil
}

func (p *fakePlatform) GetActivityRaw(ctx context.Context, accessToken string, activityID int64) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.raw, nil
}

func (p *fakePlatform) ListActivitiesRaw(ctx context.Context, accessToken string) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.listRaw, nil
}

type fakeEnrichment struct{}

func (fakeEnrichment) Fetch(ctx context.Context, activityID int64) (*domain.Enrichment, error) {
	return &domain.Enrichment{Track: []byte("<gpx/>"), Notes: "solid effort"}, nil
}

type fakeAuthProxy struct {
	bundle      domain.TokenBundle
	exchangeErr error
}

func (p *fakeAuthProxy) Refresh(ctx context.Context, refreshToken string) (domain.TokenBundle, error) {
	return p.bundle, nil
}

func (p *fakeAuthProxy) Exchange(ctx context.Context, code string) (domain.TokenBundle, error) {
	if p.exchangeErr != nil {
		return domain.TokenBundle{}, p.exchangeErr
	}
	return p.bundle, nil
}

func (p *fakeAuthProxy) CreateSubscription(ctx context.Context, callbackURL, verifyToken string) ([]byte, error) {
	return []byte(`{}`), nil
}

func (p *fakeAuthProxy) ListSubscriptions(ctx context.Context) ([]byte, error) {
	return []byte(`[]`), nil
}

func (p *fakeAuthProxy) DeleteSubscription(ctx context.Context, id string) ([]byte, error) {
	return []byte(`{}`), nil
}

// passthroughGuard stands in for the session guard: it injects the given
// bundle (when non-nil) without any CMS round trip.
func passthroughGuard(bundle *domain.TokenBundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if bundle != nil {
				ctx = domain.WithTokenBundle(ctx, *bundle)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type serverFixture struct {
	server   *Server
	store    *fakeStore
	platform *fakePlatform
	verify   ports.VerifyTokenStore
	bus      *pubsub.EventBus
	proxy    *fakeAuthProxy
}

func newFixture(t *testing.T, bundle *domain.TokenBundle) *serverFixture {
	t.Helper()
	logger := zerolog.Nop()

	store := &fakeStore{}
	platform := &fakePlatform{raw: []byte(`{"id":42,"name":"Morning Ride"}`)}
	proxy := &fakeAuthProxy{bundle: domain.TokenBundle{AccessToken: "fresh", RefreshToken: "rot", ExpiresAt: 2000000000}}
	verifyStore := verify.NewMemoryStore()
	bus := pubsub.NewEventBus(logger)
	tokens := application.NewTokenCache()

	sync := application.NewActivitySyncService(store, platform, fakeEnrichment{}, nil, nil, nil, logger)
	subs := application.NewSubscriptionService(proxy, verifyStore, "https://sync.example/webhook-s3cret", logger)

	server := &Server{
		Logger:          logger,
		Bus:             bus,
		VerifyStore:     verifyStore,
		Sync:            sync,
		Subscriptions:   subs,
		Platform:        platform,
		AuthProxy:       proxy,
		Tokens:          tokens,
		SessionGuard:    passthroughGuard(bundle),
		WebhookSecret:   "s3cret",
		AuthorizeURL:    "https://www.strava.com/oauth/authorize?client_id=1",
		SetBundleCookie: middleware.SetBundleCookie,
	}
	return &serverFixture{server: server, store: store, platform: platform, verify: verifyStore, bus: bus, proxy: proxy}
}

func liveBundle() *domain.TokenBundle {
	return &domain.TokenBundle{AccessToken: "live", RefreshToken: "refr", ExpiresAt: 2000000000}
}

func TestFetchResolvesAndRedirects(t *testing.T) {
	fx := newFixture(t, liveBundle())
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fetch/42", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/list?updated=42", rec.Header().Get("Location"))
	require.Equal(t, 1, fx.store.upserts)
}

func TestFetchWithoutTokenRedirectsToAuth(t *testing.T) {
	fx := newFixture(t, nil)
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fetch/42", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/auth", rec.Header().Get("Location"))
	require.Zero(t, fx.platform.calls)
}

func TestFetchFailureReturnsBadGateway(t *testing.T) {
	fx := newFixture(t, liveBundle())
	fx.platform.err = &domain.PlatformError{Status: http.StatusUnauthorized, Body: []byte(`{"message":"Authorization Error"}`)}
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fetch/42", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Zero(t, fx.store.upserts)
}

func TestViewSurfacesUpstreamError(t *testing.T) {
	fx := newFixture(t, liveBundle())
	fx.platform.err = &domain.PlatformError{Status: http.StatusNotFound, Body: []byte(`{"message":"Record Not Found"}`)}
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view/42", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"Record Not Found"}`, rec.Body.String())
}

func TestViewPassthrough(t *testing.T) {
	fx := newFixture(t, liveBundle())
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":42,"name":"Morning Ride"}`, rec.Body.String())
}

func TestListRendersActivities(t *testing.T) {
	fx := newFixture(t, liveBundle())
	fx.platform.listRaw = []byte(`[
		{"id":42,"name":"Morning Ride","sport_type":"Ride","start_date_local":"2024-05-01T07:00:00Z"},
		{"id":43,"name":"Evening Run","sport_type":"Run","start_date_local":"2024-05-01T19:00:00Z"}
	]`)
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list?updated=43", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Morning Ride")
	require.Contains(t, body, "Evening Run")
	require.Contains(t, body, "/fetch/43")
}

func TestAuthWithoutCodeRendersLink(t *testing.T) {
	fx := newFixture(t, nil)
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), fx.server.AuthorizeURL)
}

func TestAuthExchangeSetsCookieAndRedirects(t *testing.T) {
	fx := newFixture(t, nil)
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth?code=abc123", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	var bundleCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.BundleCookie {
			bundleCookie = c
		}
	}
	require.NotNil(t, bundleCookie)
	require.True(t, bundleCookie.HttpOnly)

	cached, ok := fx.server.Tokens.Get()
	require.True(t, ok)
	require.Equal(t, "fresh", cached.AccessToken)
}

func TestAuthExchangeFailureReturns400(t *testing.T) {
	fx := newFixture(t, nil)
	fx.proxy.exchangeErr = domain.ErrTokenRefreshFailed
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth?code=bad", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionDeleteRequiresID(t *testing.T) {
	fx := newFixture(t, liveBundle())
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscription/delete", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexShowsConnectLinkWithoutToken(t *testing.T) {
	fx := newFixture(t, nil)
	router := fx.server.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "/auth"))
}
