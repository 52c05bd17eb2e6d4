package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginUserPrefix = "asl:"
	loginIPPrefix   = "asli:"
	reissuePrefix   = "arr:"
)

// hitScript increments every key, starting the window on the first hit, and
// returns {highest count, PTTL of that key}.
var hitScript = redis.NewScript(`
local peak, peakTTL = 0, 0
for _, key in ipairs(KEYS) do
  local n = redis.call('INCR', key)
  if n == 1 then
    redis.call('PEXPIRE', key, ARGV[1])
  end
  if n > peak then
    peak = n
    peakTTL = redis.call('PTTL', key)
  end
end
return {peak, peakTTL}
`)

// peekScript returns {1, PTTL} for the first key at or above ARGV[1], else {0, 0}.
var peekScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
for _, key in ipairs(KEYS) do
  local n = tonumber(redis.call('GET', key) or '0')
  if n >= limit then
    return {1, redis.call('PTTL', key)}
  end
end
return {0, 0}
`)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableIPThrottle        bool
	EnableReissueThrottle   bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	MaxReissueAttempts      int
	ReissueCooldownDuration time.Duration
}

// Limiter enforces per-identifier and per-IP sign-in limits and per-subject
// reissue limits with fixed-window Redis counters. Each call is a single
// scripted round-trip, so concurrent callers never observe a counter without
// its expiry.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin reports whether the identifier (and, with EnableIPThrottle, the IP)
// still has failed sign-in budget. It does not count an attempt. An exhausted
// budget yields a [*LimitError].
func (l *Limiter) CheckLogin(ctx context.Context, identifier, ip string) error {
	return l.peek(ctx, l.loginKeys(identifier, ip), l.config.MaxLoginAttempts, l.config.LoginCooldownDuration)
}

// IncrementLogin records a failed sign-in. It returns a [*LimitError] when this
// attempt pushed any counter past the budget.
func (l *Limiter) IncrementLogin(ctx context.Context, identifier, ip string) error {
	return l.hit(ctx, l.loginKeys(identifier, ip), l.config.MaxLoginAttempts, l.config.LoginCooldownDuration)
}

// ResetLogin clears the failed sign-in counters after a successful sign-in.
func (l *Limiter) ResetLogin(ctx context.Context, identifier, ip string) error {
	if err := l.redis.Del(ctx, l.loginKeys(identifier, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// CheckReissue counts a reissue for subject and fails once the window budget is spent.
func (l *Limiter) CheckReissue(ctx context.Context, subject string) error {
	if !l.config.EnableReissueThrottle {
		return nil
	}
	return l.hit(ctx, []string{reissuePrefix + subject}, l.config.MaxReissueAttempts, l.config.ReissueCooldownDuration)
}

// GetLoginAttempts returns the current failed attempt counter for an identifier.
// Missing keys return zero and do not reveal account existence.
func (l *Limiter) GetLoginAttempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, loginUserPrefix+identifier).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(max(count, 0)), nil
}

func (l *Limiter) loginKeys(identifier, ip string) []string {
	keys := []string{loginUserPrefix + identifier}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, loginIPPrefix+ip)
	}
	return keys
}

func (l *Limiter) hit(ctx context.Context, keys []string, limit int, window time.Duration) error {
	res, err := hitScript.Run(ctx, l.redis, keys, window.Milliseconds()).Int64Slice()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 2 {
		return fmt.Errorf("%w: unexpected script reply %v", ErrRedisUnavailable, res)
	}
	if res[0] > int64(limit) {
		return newLimitError(res[1], window)
	}
	return nil
}

func (l *Limiter) peek(ctx context.Context, keys []string, limit int, window time.Duration) error {
	res, err := peekScript.Run(ctx, l.redis, keys, limit).Int64Slice()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 2 {
		return fmt.Errorf("%w: unexpected script reply %v", ErrRedisUnavailable, res)
	}
	if res[0] == 1 {
		return newLimitError(res[1], window)
	}
	return nil
}
