package flows

import (
	"context"
	"strings"
)

// IdentityVerifier confirms a third-party access token and returns its email.
type IdentityVerifier interface {
	VerifiedEmail(ctx context.Context, providerToken string) (string, error)
}

// SocialDirectory creates password-less accounts.
type SocialDirectory interface {
	CreateSocialUser(ctx context.Context, req SocialRegisterRequest) (string, error)
}

// SocialRegisterRequest is the flow-local social sign-up payload.
type SocialRegisterRequest struct {
	Email string
	Name  string
}

// SocialFailureKind classifies social sign-in and sign-up failures.
type SocialFailureKind int

const (
	SocialFailureNone SocialFailureKind = iota
	SocialFailureVerify
	SocialFailureMismatch
	SocialFailureDirectory
	SocialFailureSignIn
)

// SocialResult wraps the sign-in result issued for a verified identity.
type SocialResult struct {
	Failure SocialFailureKind
	Err     error
	SignIn  SignInResult
}

// SocialDeps captures social sign-in dependencies. Directory is only needed
// for sign-up.
type SocialDeps struct {
	Verifier  IdentityVerifier
	Directory SocialDirectory
	SignIn    SignInDeps
}

// RunSocialSignIn confirms that providerToken belongs to email and signs the
// email in as the subject.
func RunSocialSignIn(ctx context.Context, email, providerToken string, deps SocialDeps) SocialResult {
	if res, ok := verifyIdentity(ctx, email, providerToken, deps.Verifier); !ok {
		return res
	}

	res := RunSignIn(ctx, email, deps.SignIn)
	if res.Failure != SignInFailureNone {
		return SocialResult{Failure: SocialFailureSignIn, Err: res.Err, SignIn: res}
	}
	return SocialResult{SignIn: res}
}

// RunSocialRegister confirms the identity, creates the account and signs the
// new subject in.
func RunSocialRegister(ctx context.Context, req SocialRegisterRequest, providerToken string, deps SocialDeps) SocialResult {
	if res, ok := verifyIdentity(ctx, req.Email, providerToken, deps.Verifier); !ok {
		return res
	}

	subject, err := deps.Directory.CreateSocialUser(ctx, req)
	if err != nil {
		return SocialResult{Failure: SocialFailureDirectory, Err: err}
	}

	res := RunSignIn(ctx, subject, deps.SignIn)
	if res.Failure != SignInFailureNone {
		return SocialResult{Failure: SocialFailureSignIn, Err: res.Err, SignIn: res}
	}
	return SocialResult{SignIn: res}
}

func verifyIdentity(ctx context.Context, email, providerToken string, v IdentityVerifier) (SocialResult, bool) {
	verified, err := v.VerifiedEmail(ctx, providerToken)
	if err != nil {
		return SocialResult{Failure: SocialFailureVerify, Err: err}, false
	}
	if !strings.EqualFold(strings.TrimSpace(verified), strings.TrimSpace(email)) {
		return SocialResult{Failure: SocialFailureMismatch}, false
	}
	return SocialResult{}, true
}
