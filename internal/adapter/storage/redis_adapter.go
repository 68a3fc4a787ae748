package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ldt1810/shop-backend/internal/port"
)

const (
	idempotencyKeyTTL = 24 * time.Hour

	sessionKeyPrefix = "session:"
	codeKeyPrefix    = "code:"
)

// RedisAdapter is the TokenStore: idempotency markers for order submissions,
// session tokens and one-time confirmation/reset codes, all with TTLs so
// nothing needs explicit cleanup.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

var _ port.TokenStore = (*RedisAdapter)(nil)

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

func (r *RedisAdapter) PutSession(ctx context.Context, token, claimsJSON string, ttl time.Duration) error {
	return r.client.Set(ctx, sessionKeyPrefix+token, claimsJSON, ttl).Err()
}

func (r *RedisAdapter) GetSession(ctx context.Context, token string) (string, error) {
	value, err := r.client.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return value, nil
}

func (r *RedisAdapter) DeleteSession(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionKeyPrefix+token).Err()
}

func (r *RedisAdapter) PutCode(ctx context.Context, key, code string, ttl time.Duration) error {
	return r.client.Set(ctx, codeKeyPrefix+key, code, ttl).Err()
}

func (r *RedisAdapter) GetCode(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, codeKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get code: %w", err)
	}
	return value, nil
}

func (r *RedisAdapter) DeleteCode(ctx context.Context, key string) error {
	return r.client.Del(ctx, codeKeyPrefix+key).Err()
}
