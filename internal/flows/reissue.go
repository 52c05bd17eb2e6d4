package flows

import (
	"context"
	"errors"
	"time"
)

// ReissueFailureKind classifies reissue flow failures for root-level mapping.
type ReissueFailureKind int

const (
	ReissueFailureNone ReissueFailureKind = iota
	ReissueFailureDecode
	ReissueFailureRateLimited
	ReissueFailureSessionNotFound
	ReissueFailureStore
	ReissueFailureInvalidRefresh
	ReissueFailureIssueRefresh
	ReissueFailureIssueAccess
	ReissueFailureRevoke
)

// ReissueResult carries the new access token or failure metadata.
type ReissueResult struct {
	Failure      ReissueFailureKind
	Err          error
	Subject      string
	AccessToken  string
	ExpiresAt    time.Time
	Rotated      bool
	RefreshToken string
}

// ReissueDeps captures reissue flow dependencies.
type ReissueDeps struct {
	Codec        TokenCodec
	Sessions     SessionStore
	Revocations  RevocationList
	RateLimiter  ReissueLimiter
	AccessLeeway time.Duration
	// RevokeLeeway is added to the old token's remaining lifetime when it is
	// blacklisted; see SignOutDeps.RevokeLeeway.
	RevokeLeeway    time.Duration
	RotateRefresh   bool
	SessionNotFound error
}

// RunReissue exchanges a previously issued access token for a new one while the
// subject still holds a stored refresh token. The old access token is revoked
// for its remaining lifetime plus RevokeLeeway once the replacement exists.
// Revoked access tokens are not rejected here; only the stored refresh token
// gates reissue.
func RunReissue(ctx context.Context, accessToken string, deps ReissueDeps) ReissueResult {
	subject, err := deps.Codec.SubjectOfWithLeeway(accessToken, deps.AccessLeeway)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureDecode, Err: err}
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckReissue(ctx, subject); err != nil {
			return ReissueResult{Failure: ReissueFailureRateLimited, Err: err, Subject: subject}
		}
	}

	stored, err := deps.Sessions.Get(ctx, subject)
	if err != nil {
		if deps.SessionNotFound != nil && errors.Is(err, deps.SessionNotFound) {
			return ReissueResult{Failure: ReissueFailureSessionNotFound, Err: err, Subject: subject}
		}
		return ReissueResult{Failure: ReissueFailureStore, Err: err, Subject: subject}
	}

	if !deps.Codec.VerifySignatureOnly(stored) {
		return ReissueResult{Failure: ReissueFailureInvalidRefresh, Subject: subject}
	}

	result := ReissueResult{Subject: subject}
	if deps.RotateRefresh {
		next, err := deps.Codec.IssueRefresh()
		if err != nil {
			return ReissueResult{Failure: ReissueFailureIssueRefresh, Err: err, Subject: subject}
		}
		if err := deps.Sessions.Put(ctx, subject, next, deps.Codec.RefreshTTL()); err != nil {
			return ReissueResult{Failure: ReissueFailureStore, Err: err, Subject: subject}
		}
		result.Rotated = true
		result.RefreshToken = next
	}

	access, err := deps.Codec.IssueAccess(subject)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureIssueAccess, Err: err, Subject: subject}
	}
	expiresAt, err := deps.Codec.ExpiresAt(access)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureIssueAccess, Err: err, Subject: subject}
	}

	remaining, err := deps.Codec.RemainingTTL(accessToken)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureDecode, Err: err, Subject: subject}
	}
	if err := deps.Revocations.Revoke(ctx, accessToken, remaining+deps.RevokeLeeway); err != nil {
		return ReissueResult{Failure: ReissueFailureRevoke, Err: err, Subject: subject}
	}

	result.AccessToken = access
	result.ExpiresAt = expiresAt
	return result
}
