package flows

import (
	"context"
	"strings"
	"time"
)

// SignInFailureKind classifies sign-in flow failures for root-level mapping.
type SignInFailureKind int

const (
	SignInFailureNone SignInFailureKind = iota
	SignInFailureSubject
	SignInFailureIssueRefresh
	SignInFailurePersist
	SignInFailureIssueAccess
)

// SignInResult carries the issued access token or failure metadata.
type SignInResult struct {
	Failure      SignInFailureKind
	Err          error
	Subject      string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SignInDeps captures sign-in flow dependencies.
type SignInDeps struct {
	Codec    TokenCodec
	Sessions SessionStore
}

// RunSignIn issues a refresh token, stores it under subject (replacing any
// previous one), then issues the access token bound to subject.
func RunSignIn(ctx context.Context, subject string, deps SignInDeps) SignInResult {
	if strings.TrimSpace(subject) == "" {
		return SignInResult{Failure: SignInFailureSubject}
	}

	refresh, err := deps.Codec.IssueRefresh()
	if err != nil {
		return SignInResult{Failure: SignInFailureIssueRefresh, Err: err, Subject: subject}
	}

	if err := deps.Sessions.Put(ctx, subject, refresh, deps.Codec.RefreshTTL()); err != nil {
		return SignInResult{Failure: SignInFailurePersist, Err: err, Subject: subject}
	}

	access, err := deps.Codec.IssueAccess(subject)
	if err != nil {
		return SignInResult{Failure: SignInFailureIssueAccess, Err: err, Subject: subject}
	}

	expiresAt, err := deps.Codec.ExpiresAt(access)
	if err != nil {
		return SignInResult{Failure: SignInFailureIssueAccess, Err: err, Subject: subject}
	}

	return SignInResult{
		Subject:      subject,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}
}
