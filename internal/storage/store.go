package storage

import (
	"context"
	"time"
)

// SessionStore maps opaque session tokens to user ids.
// Implementations: redis.Client, memory.Client (for -dev without Redis).
type SessionStore interface {
	SetSession(ctx context.Context, token, userID string, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (userID string, err error)
	DeleteSession(ctx context.Context, token string) error
	Close() error
}
