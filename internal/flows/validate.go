package flows

import (
	"context"
	"time"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureDecode
	ValidateFailureRevoked
	ValidateFailureStore
)

// ValidateResult returns the token subject or a classified failure.
type ValidateResult struct {
	Failure   ValidateFailureKind
	Err       error
	Subject   string
	ExpiresAt time.Time
}

// ValidateDeps captures access token validation dependencies.
type ValidateDeps struct {
	Codec       TokenCodec
	Revocations RevocationList
	Leeway      time.Duration
}

// RunValidate strictly parses the access token and rejects it when revoked.
func RunValidate(ctx context.Context, accessToken string, deps ValidateDeps) ValidateResult {
	subject, err := deps.Codec.SubjectOfWithLeeway(accessToken, deps.Leeway)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureDecode, Err: err}
	}

	expiresAt, err := deps.Codec.ExpiresAt(accessToken)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureDecode, Err: err}
	}

	revoked, err := deps.Revocations.IsRevoked(ctx, accessToken)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureStore, Err: err, Subject: subject}
	}
	if revoked {
		return ValidateResult{Failure: ValidateFailureRevoked, Subject: subject}
	}

	return ValidateResult{Subject: subject, ExpiresAt: expiresAt}
}
