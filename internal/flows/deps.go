package flows

import (
	"context"
	"time"
)

// TokenCodec is the subset of the token manager the flows depend on.
type TokenCodec interface {
	IssueAccess(subject string) (string, error)
	IssueRefresh() (string, error)
	SubjectOfWithLeeway(token string, leeway time.Duration) (string, error)
	ExpiresAt(token string) (time.Time, error)
	RemainingTTL(token string) (time.Duration, error)
	VerifySignatureOnly(token string) bool
	RefreshTTL() time.Duration
}

// SessionStore holds the single live refresh token per subject.
type SessionStore interface {
	Put(ctx context.Context, subject, refreshToken string, ttl time.Duration) error
	Get(ctx context.Context, subject string) (string, error)
	Delete(ctx context.Context, subject string) error
}

// RevocationList records revoked tokens until their natural expiry.
type RevocationList interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// ReissueLimiter throttles reissue calls per subject.
type ReissueLimiter interface {
	CheckReissue(ctx context.Context, subject string) error
}

// LoginLimiter throttles failed credential checks.
type LoginLimiter interface {
	CheckLogin(ctx context.Context, identifier, ip string) error
	IncrementLogin(ctx context.Context, identifier, ip string) error
	ResetLogin(ctx context.Context, identifier, ip string) error
}

// Directory is the external user directory that owns credentials and profiles.
type Directory interface {
	VerifyCredentials(ctx context.Context, identifier, password string) (string, error)
	CreateUser(ctx context.Context, req RegisterRequest) (string, error)
}

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	SignIn   SignInDeps
	Reissue  ReissueDeps
	SignOut  SignOutDeps
	Validate ValidateDeps
	Login    LoginDeps
	Register RegisterDeps
	Social   SocialDeps
}
