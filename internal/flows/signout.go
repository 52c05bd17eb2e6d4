package flows

import (
	"context"
	"errors"
	"time"
)

// SignOutFailureKind classifies sign-out flow failures for root-level mapping.
type SignOutFailureKind int

const (
	SignOutFailureNone SignOutFailureKind = iota
	SignOutFailureDecode
	SignOutFailureStore
)

// SignOutResult reports the subject that was signed out, if decoding succeeded.
type SignOutResult struct {
	Failure        SignOutFailureKind
	Err            error
	Subject        string
	RefreshRevoked bool
}

// SignOutDeps captures sign-out flow dependencies.
type SignOutDeps struct {
	Codec         TokenCodec
	Sessions      SessionStore
	Revocations   RevocationList
	RevokeRefresh bool
	Leeway        time.Duration
	// RevokeLeeway extends each access blacklist entry past the token's exp by
	// the leeway validation still accepts it for.
	RevokeLeeway    time.Duration
	SessionNotFound error
}

// RunSignOut revokes the access token, optionally revokes the stored refresh
// token, and deletes the session. A subject without a session is not an error.
func RunSignOut(ctx context.Context, accessToken string, deps SignOutDeps) SignOutResult {
	subject, err := deps.Codec.SubjectOfWithLeeway(accessToken, deps.Leeway)
	if err != nil {
		return SignOutResult{Failure: SignOutFailureDecode, Err: err}
	}

	remaining, err := deps.Codec.RemainingTTL(accessToken)
	if err != nil {
		return SignOutResult{Failure: SignOutFailureDecode, Err: err, Subject: subject}
	}
	if err := deps.Revocations.Revoke(ctx, accessToken, remaining+deps.RevokeLeeway); err != nil {
		return SignOutResult{Failure: SignOutFailureStore, Err: err, Subject: subject}
	}

	result := SignOutResult{Subject: subject}
	if deps.RevokeRefresh {
		stored, err := deps.Sessions.Get(ctx, subject)
		switch {
		case err == nil:
			// A stored value that no longer parses is deleted below without a blacklist entry.
			if ttl, ttlErr := deps.Codec.RemainingTTL(stored); ttlErr == nil {
				if err := deps.Revocations.Revoke(ctx, stored, ttl); err != nil {
					return SignOutResult{Failure: SignOutFailureStore, Err: err, Subject: subject}
				}
				result.RefreshRevoked = true
			}
		case deps.SessionNotFound != nil && errors.Is(err, deps.SessionNotFound):
		default:
			return SignOutResult{Failure: SignOutFailureStore, Err: err, Subject: subject}
		}
	}

	if err := deps.Sessions.Delete(ctx, subject); err != nil {
		return SignOutResult{Failure: SignOutFailureStore, Err: err, Subject: subject}
	}

	return result
}
