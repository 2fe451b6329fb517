package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"

	"strava-directus-layer/internal/infrastructure/verify"
	"strava-directus-layer/internal/ports"
)

// SubscriptionService drives the push-notification subscription through the
// auth-proxy façade. Results are fire-and-log: the façade's responses are
// logged, not interpreted.
type SubscriptionService struct {
	proxy       ports.AuthProxy
	verifyStore ports.VerifyTokenStore
	callbackURL string
	logger      zerolog.Logger
}

// NewSubscriptionService creates a subscription manager. callbackURL is the
// absolute webhook URL of this service.
func NewSubscriptionService(proxy ports.AuthProxy, verifyStore ports.VerifyTokenStore, callbackURL string, logger zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{
		proxy:       proxy,
		verifyStore: verifyStore,
		callbackURL: callbackURL,
		logger:      logger,
	}
}

// Create generates a fresh verification token, stores it as the single
// pending value, and asks the façade to register a subscription pointing at
// our webhook URL.
func (s *SubscriptionService) Create(ctx context.Context) error {
	token, err := newVerifyToken()
	if err != nil {
		return fmt.Errorf("failed to generate verify token: %w", err)
	}
	if err := s.verifyStore.Put(ctx, token, verify.DefaultTTL); err != nil {
		return fmt.Errorf("failed to store verify token: %w", err)
	}

	result, err := s.proxy.CreateSubscription(ctx, s.callbackURL, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("Subscription create failed")
		return err
	}
	s.logger.Info().RawJSON("response", result).Msg("Subscription create requested")
	return nil
}

// View returns the façade's current subscription listing verbatim.
func (s *SubscriptionService) View(ctx context.Context) ([]byte, error) {
	return s.proxy.ListSubscriptions(ctx)
}

// Delete removes a subscription by id.
func (s *SubscriptionService) Delete(ctx context.Context, id string) error {
	result, err := s.proxy.DeleteSubscription(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Subscription delete failed")
		return err
	}
	s.logger.Info().Str("id", id).RawJSON("response", result).Msg("Subscription deleted")
	return nil
}

func newVerifyToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
