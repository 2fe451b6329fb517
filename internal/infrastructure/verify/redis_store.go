package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"strava-directus-layer/internal/ports"
)

const redisKey = "strava:webhook:verify_token"

// RedisStore keeps the pending token in Redis so the handshake survives a
// restart and works when more than one process serves the webhook URL.
type RedisStore struct {
	client redis.UniversalClient
}

var _ ports.VerifyTokenStore = (*RedisStore)(nil)
var _ ports.VerifyTokenStore = (*MemoryStore)(nil)

// NewRedisStore constructs a Redis-backed verification-token store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Put replaces the pending token with TTL.
func (s *RedisStore) Put(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.client.Set(ctx, redisKey, token, ttl).Err(); err != nil {
		return fmt.Errorf("persist verify token: %w", err)
	}
	return nil
}

// Get returns the pending token, or "" when none is pending.
func (s *RedisStore) Get(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, redisKey).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("load verify token: %w", err)
	}
	return value, nil
}
