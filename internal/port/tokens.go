package port

import (
	"context"
	"time"
)

// TokenStore holds the short-lived request-scoped state: idempotency markers,
// session tokens and one-time codes.
type TokenStore interface {
	// SetIdempotency sets a marker for the key, returns false if already set.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	PutSession(ctx context.Context, token, claimsJSON string, ttl time.Duration) error
	// GetSession returns ("", nil) when the token is unknown or expired.
	GetSession(ctx context.Context, token string) (string, error)
	DeleteSession(ctx context.Context, token string) error

	PutCode(ctx context.Context, key, code string, ttl time.Duration) error
	// GetCode returns ("", nil) when the key is unknown or expired.
	GetCode(ctx context.Context, key string) (string, error)
	DeleteCode(ctx context.Context, key string) error
}
