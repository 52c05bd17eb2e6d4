package tokenAuth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/tokenAuth/internal/flows"
)

// socialDirectoryAdapter converts between the public and flow-local request types.
type socialDirectoryAdapter struct {
	dir SocialUserDirectory
}

func (a socialDirectoryAdapter) CreateSocialUser(ctx context.Context, req flows.SocialRegisterRequest) (string, error) {
	return a.dir.CreateSocialUser(ctx, SocialRegisterRequest{Email: req.Email, Name: req.Name})
}

func socialMetadata() map[string]string {
	return map[string]string{"method": "social"}
}

// SocialSignIn signs email in once the [IdentityVerifier] confirms that
// providerToken was issued for it. No password is involved and the email is
// the subject.
func (e *Engine) SocialSignIn(ctx context.Context, email, providerToken string) (*TokenResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if !e.flowSvc.SocialReady() {
		return nil, ErrSocialNotConfigured
	}
	email = strings.TrimSpace(email)
	if email == "" || providerToken == "" {
		e.metricInc(MetricSignInFailure)
		return nil, ErrSocialIdentityRejected
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	res := e.flowSvc.SocialSignIn(ctx, email, providerToken)
	if err := e.socialFailure(ctx, res, auditEventSignInFailure, MetricSignInFailure); err != nil {
		return nil, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignInSuccess, true, res.SignIn.Subject, nil, socialMetadata)
	return e.tokenResult(res.SignIn.AccessToken, res.SignIn.ExpiresAt), nil
}

// SocialRegister confirms the identity, creates a password-less account
// through the [SocialUserDirectory] and signs the new subject in.
func (e *Engine) SocialRegister(ctx context.Context, req SocialRegisterRequest, providerToken string) (*TokenResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if !e.flowSvc.SocialReady() {
		return nil, ErrSocialNotConfigured
	}
	if _, ok := e.directory.(SocialUserDirectory); !ok {
		return nil, ErrSocialNotConfigured
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || providerToken == "" {
		e.metricInc(MetricRegisterFailure)
		return nil, ErrSocialIdentityRejected
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	res := e.flowSvc.SocialRegister(ctx, flows.SocialRegisterRequest{Email: req.Email, Name: req.Name}, providerToken)
	if err := e.socialFailure(ctx, res, auditEventRegisterFailure, MetricRegisterFailure); err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, res.SignIn.Subject, nil, socialMetadata)
	return e.tokenResult(res.SignIn.AccessToken, res.SignIn.ExpiresAt), nil
}

// socialFailure maps a failed social flow to its error, counting failure and
// emitting event. It returns nil for a successful result.
func (e *Engine) socialFailure(ctx context.Context, res flows.SocialResult, event string, failure MetricID) error {
	var (
		err     error
		subject string
	)
	switch res.Failure {
	case flows.SocialFailureNone:
		return nil
	case flows.SocialFailureVerify:
		err = identityError(res.Err)
	case flows.SocialFailureMismatch:
		err = fmt.Errorf("%w: email does not match the provider identity", ErrSocialIdentityRejected)
	case flows.SocialFailureDirectory:
		err = res.Err
		if !errors.Is(err, ErrAccountExists) && !errors.Is(err, ErrInvalidRegistration) {
			err = directoryError(err)
			e.metricInc(MetricDirectoryUnavailable)
		}
	default:
		err = e.signInError(res.SignIn)
		subject = res.SignIn.Subject
	}

	e.metricInc(failure)
	e.emitAudit(ctx, event, false, subject, err, socialMetadata)
	return err
}

func identityError(err error) error {
	if errors.Is(err, ErrIdentityProviderUnavailable) || errors.Is(err, ErrSocialIdentityRejected) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSocialIdentityRejected, err)
}
