package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newmo-oss/ctxtime"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key the token is stored under.
const DefaultRedisKey = "courseops:auth_token"

// RedisTokenStore keeps the token in Redis so several console processes can
// share one session. The key expires together with the token.
type RedisTokenStore struct {
	client redis.Cmdable
	key    string
}

// RedisOption configures a RedisTokenStore.
type RedisOption func(*RedisTokenStore)

// WithRedisKey overrides DefaultRedisKey.
func WithRedisKey(key string) RedisOption {
	return func(s *RedisTokenStore) {
		if key != "" {
			s.key = key
		}
	}
}

// NewRedisTokenStore creates a store on an existing client.
func NewRedisTokenStore(client redis.Cmdable, opts ...RedisOption) *RedisTokenStore {
	s := &RedisTokenStore{client: client, key: DefaultRedisKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the Redis key in use.
func (s *RedisTokenStore) Key() string {
	return s.key
}

func (s *RedisTokenStore) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("auth: read token: %w", err)
	}
	return token, nil
}

// SetToken stores token with a TTL matching its exp claim. Tokens without
// exp, or that cannot be decoded, are stored without expiry; already expired
// tokens are rejected.
func (s *RedisTokenStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	var ttl time.Duration
	if id, err := InspectToken(token); err == nil && !id.ExpiresAt.IsZero() {
		ttl = id.ExpiresAt.Sub(ctxtime.Now(ctx))
		if ttl <= 0 {
			return ErrTokenExpired
		}
	}

	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("auth: write token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("auth: clear token: %w", err)
	}
	return nil
}

// Ping checks the connection; used by the health checker.
func (s *RedisTokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ TokenStore = (*RedisTokenStore)(nil)
