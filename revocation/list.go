package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPrefix is the key namespace used when NewList receives an empty prefix.
	DefaultPrefix = "blacklist:"
	// Sentinel is the value stored for every revoked token.
	Sentinel = "logout"
)

// ErrRedisUnavailable wraps every Redis transport or server failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// List records revoked tokens until their natural expiry.
type List struct {
	redis  redis.UniversalClient
	prefix string
}

// NewList creates a revocation [List] backed by the given Redis client.
func NewList(redis redis.UniversalClient, prefix string) *List {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &List{redis: redis, prefix: prefix}
}

func (l *List) key(token string) string {
	return l.prefix + token
}

// Revoke marks token as revoked for ttl. Callers pass the token's remaining lifetime;
// a non-positive ttl means the token is already expired and nothing is written.
// Revoking an already revoked token only refreshes its TTL.
func (l *List) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := l.redis.Set(ctx, l.key(token), Sentinel, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether token is currently on the list.
func (l *List) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := l.redis.Exists(ctx, l.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
