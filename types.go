package tokenAuth

import (
	"context"
	"time"
)

// AuthResult is returned by [Engine.Validate] for an unrevoked, unexpired access token.
type AuthResult struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenResult is returned by [Engine.SignInWithResult] and [Engine.ReissueWithResult].
// TTL is the access token lifetime and drives the cookie Max-Age in the
// HTTP transport.
type TokenResult struct {
	AccessToken string
	ExpiresAt   time.Time
	TTL         time.Duration
}

// RegisterRequest is the sign-up payload forwarded to the [UserDirectory].
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// UserDirectory is the external collaborator that owns credentials and user
// records. The Engine never sees password hashes.
//
// VerifyCredentials returns the subject to sign in, or an error wrapping
// [ErrInvalidCredentials] when the directory rejects the pair. CreateUser
// returns the subject of the new record, or an error wrapping
// [ErrAccountExists]. Transport failures should wrap [ErrDirectoryUnavailable].
type UserDirectory interface {
	VerifyCredentials(ctx context.Context, identifier, password string) (string, error)
	CreateUser(ctx context.Context, req RegisterRequest) (string, error)
}

// SocialRegisterRequest is the password-less sign-up payload for an identity
// already confirmed by an [IdentityVerifier].
type SocialRegisterRequest struct {
	Email string
	Name  string
}

// IdentityVerifier confirms a third-party OAuth2 access token and returns the
// email address it was issued for. Rejected tokens wrap
// [ErrSocialIdentityRejected]; provider outages wrap
// [ErrIdentityProviderUnavailable].
type IdentityVerifier interface {
	VerifiedEmail(ctx context.Context, providerToken string) (string, error)
}

// SocialUserDirectory is implemented by a [UserDirectory] that can create
// accounts without a password.
type SocialUserDirectory interface {
	CreateSocialUser(ctx context.Context, req SocialRegisterRequest) (string, error)
}
