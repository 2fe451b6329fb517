package application

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"strava-directus-layer/internal/domain"
	"strava-directus-layer/internal/infrastructure/verify"
)

type fakeProxy struct {
	createdCallback string
	createdVerify   string
	deletedID       string
	listing         []byte
}

func (p *fakeProxy) Refresh(context.Context, string) (domain.TokenBundle, error) {
	return domain.TokenBundle{}, nil
}

func (p *fakeProxy) Exchange(context.Context, string) (domain.TokenBundle, error) {
	return domain.TokenBundle{}, nil
}

func (p *fakeProxy) CreateSubscription(_ context.Context, callbackURL, verifyToken string) ([]byte, error) {
	p.createdCallback = callbackURL
	p.createdVerify = verifyToken
	return []byte(`{"id":77}`), nil
}

func (p *fakeProxy) ListSubscriptions(context.Context) ([]byte, error) {
	return p.listing, nil
}

func (p *fakeProxy) DeleteSubscription(_ context.Context, id string) ([]byte, error) {
	p.deletedID = id
	return []byte(`{}`), nil
}

func TestCreateRotatesVerifyToken(t *testing.T) {
	proxy := &fakeProxy{}
	store := verify.NewMemoryStore()
	service := NewSubscriptionService(proxy, store, "https://cms.example/ext/webhook-s3cret", zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, service.Create(ctx))
	first, err := store.Get(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	require.Equal(t, first, proxy.createdVerify)
	require.Equal(t, "https://cms.example/ext/webhook-s3cret", proxy.createdCallback)

	require.NoError(t, service.Create(ctx))
	second, err := store.Get(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, second)
	require.NotEqual(t, first, second)
}

func TestViewAndDeletePassThrough(t *testing.T) {
	proxy := &fakeProxy{listing: []byte(`[{"id":77}]`)}
	service := NewSubscriptionService(proxy, verify.NewMemoryStore(), "https://cms.example/ext/webhook-x", zerolog.Nop())
	ctx := context.Background()

	body, err := service.View(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":77}]`, string(body))

	require.NoError(t, service.Delete(ctx, "77"))
	require.Equal(t, "77", proxy.deletedID)
}
