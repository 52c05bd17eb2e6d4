package rate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited is matched by every [*LimitError].
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps every Redis failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// LimitError reports an exhausted window and how long until it resets.
type LimitError struct {
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Is makes errors.Is(err, ErrRateLimited) hold.
func (e *LimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfter extracts the reset delay from err. The second result is false
// when err is not a rate limit.
func RetryAfter(err error) (time.Duration, bool) {
	var le *LimitError
	if !errors.As(err, &le) {
		return 0, false
	}
	return le.RetryAfter, true
}

// newLimitError converts a PTTL reply. Keys without an expiry (-1) or already
// gone (-2) report the full window.
func newLimitError(pttlMillis int64, window time.Duration) *LimitError {
	retry := time.Duration(pttlMillis) * time.Millisecond
	if pttlMillis <= 0 {
		retry = window
	}
	return &LimitError{RetryAfter: retry}
}
