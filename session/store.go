package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is the key namespace used when NewStore receives an empty prefix.
const DefaultPrefix = "refreshToken:"

var (
	// ErrRedisUnavailable wraps every Redis transport or server failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrNotFound is returned by Get when the subject has no live session.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidTTL is returned by Put for non-positive lifetimes.
	ErrInvalidTTL = errors.New("session ttl must be > 0")
)

// Store keeps at most one refresh token per subject.
//
//	Performance: every method is a single Redis command.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

func (s *Store) key(subject string) string {
	return s.prefix + subject
}

// Put stores refreshToken as the subject's only session, replacing any previous one.
func (s *Store) Put(ctx context.Context, subject, refreshToken string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := s.redis.Set(ctx, s.key(subject), refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the subject's current refresh token or [ErrNotFound].
func (s *Store) Get(ctx context.Context, subject string) (string, error) {
	token, err := s.redis.Get(ctx, s.key(subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

// Delete removes the subject's session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, subject string) error {
	if err := s.redis.Del(ctx, s.key(subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// TTL returns the remaining natural lifetime of the subject's session, or
// [ErrNotFound] when there is none.
func (s *Store) TTL(ctx context.Context, subject string) (time.Duration, error) {
	ttl, err := s.redis.PTTL(ctx, s.key(subject)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// go-redis returns the raw -2 reply for a missing key.
	if ttl == -2 {
		return 0, ErrNotFound
	}
	return ttl, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
