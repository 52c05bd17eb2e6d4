package tokenAuth

import (
	"errors"
	"time"
)

var (
	// ErrConfiguration reports a missing or malformed key or config value. It is fatal at startup.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrClaimCrypto reports a claim that could not be encrypted or decrypted.
	ErrClaimCrypto = errors.New("claim crypto failure")
	// ErrTokenInvalid reports a token that failed signature or structural checks.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrUnauthorized is returned for every unusable access token, whatever the cause.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidSubject is returned when sign-in is called with a blank subject.
	ErrInvalidSubject = errors.New("invalid subject")
	// ErrRefreshTokenNotFound means the subject has no live session. The caller must sign in again.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrInvalidRefreshToken means the stored refresh token failed its signature check.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrStoreUnavailable wraps key-value backend failures. It is the only retryable kind.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidCredentials is returned when the user directory rejects a credential check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSignInRateLimited is returned when an identifier or IP exhausted its failed sign-in budget.
	ErrSignInRateLimited = errors.New("sign-in rate limited")
	// ErrReissueRateLimited is returned when a subject exhausted its reissue budget.
	ErrReissueRateLimited = errors.New("reissue rate limited")
	// ErrDirectoryUnavailable wraps user directory transport failures.
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
	// ErrAccountExists is returned by sign-up when the directory already holds the identifier.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidRegistration is returned by sign-up when the directory rejects the payload.
	ErrInvalidRegistration = errors.New("invalid registration request")
	// ErrSocialIdentityRejected is returned when the identity provider rejects
	// the presented token or vouches for a different email address.
	ErrSocialIdentityRejected = errors.New("social identity rejected")
	// ErrIdentityProviderUnavailable wraps identity provider transport failures.
	ErrIdentityProviderUnavailable = errors.New("identity provider unavailable")
	// ErrSocialNotConfigured is returned by social sign-in without an IdentityVerifier.
	ErrSocialNotConfigured = errors.New("social sign-in not configured")
	// ErrEngineNotReady is returned by operations on an Engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitError carries the time left in an exhausted sign-in or reissue
// window. errors.Is matches it against [ErrSignInRateLimited] or
// [ErrReissueRateLimited].
type RateLimitError struct {
	Kind       error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return e.Kind.Error() }

func (e *RateLimitError) Unwrap() error { return e.Kind }

// RetryAfter reports how long a rate-limited caller should wait. The second
// result is false when err is not a [*RateLimitError].
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		return 0, false
	}
	return rl.RetryAfter, true
}
