package tokenAuth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/tokenAuth/claimcrypt"
	"github.com/MrEthical07/tokenAuth/internal/flows"
	"github.com/MrEthical07/tokenAuth/internal/rate"
	"github.com/MrEthical07/tokenAuth/jwt"
	"github.com/MrEthical07/tokenAuth/revocation"
	"github.com/MrEthical07/tokenAuth/session"
)

// Engine runs the sign-in, reissue, and sign-out protocol over the token
// codec, the session store, and the revocation list.
//
// Per subject the engine moves between three implicit states derived from
// Redis: no session, active (a stored refresh token), and signed out (access
// token blacklisted, refresh token deleted). Multi-step operations are not
// transactional; a failure midway never grants more access than before.
type Engine struct {
	config      Config
	codec       *jwt.Manager
	sessions    *session.Store
	revocations *revocation.List
	rateLimiter *rate.Limiter
	directory   UserDirectory
	identity    IdentityVerifier
	logger      *slog.Logger
	audit       *auditDispatcher
	metrics     *Metrics
	flowSvc     flows.Service
}

// Close drains the audit dispatcher. The Redis client is owned by the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AccessTTL returns the configured access token lifetime.
func (e *Engine) AccessTTL() time.Duration {
	return e.config.JWT.AccessTTL
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flowSvc.Initialized()
}

func (e *Engine) initFlowDeps() {
	signIn := flows.SignInDeps{
		Codec:    e.codec,
		Sessions: e.sessions,
	}

	var dir flows.Directory
	if e.directory != nil {
		dir = directoryAdapter{e.directory}
	}

	e.flowSvc = flows.New(flows.Deps{
		SignIn: signIn,
		Reissue: flows.ReissueDeps{
			Codec:           e.codec,
			Sessions:        e.sessions,
			Revocations:     e.revocations,
			RateLimiter:     e.rateLimiter,
			AccessLeeway:    max(e.config.JWT.Leeway, e.config.JWT.ReissueLeeway),
			RevokeLeeway:    e.config.JWT.Leeway,
			RotateRefresh:   e.config.Session.RotateRefreshOnReissue,
			SessionNotFound: session.ErrNotFound,
		},
		SignOut: flows.SignOutDeps{
			Codec:           e.codec,
			Sessions:        e.sessions,
			Revocations:     e.revocations,
			RevokeRefresh:   e.config.Revocation.RevokeRefreshOnSignOut,
			Leeway:          e.config.JWT.Leeway,
			RevokeLeeway:    e.config.JWT.Leeway,
			SessionNotFound: session.ErrNotFound,
		},
		Validate: flows.ValidateDeps{
			Codec:       e.codec,
			Revocations: e.revocations,
			Leeway:      e.config.JWT.Leeway,
		},
		Login: flows.LoginDeps{
			Directory:          dir,
			RateLimiter:        e.rateLimiter,
			SignIn:             signIn,
			InvalidCredentials: ErrInvalidCredentials,
			RateLimited:        rate.ErrRateLimited,
			Warn:               e.logger.Warn,
		},
		Register: flows.RegisterDeps{
			Directory: dir,
			SignIn:    signIn,
		},
		Social: e.socialDeps(signIn),
	})
}

func (e *Engine) socialDeps(signIn flows.SignInDeps) flows.SocialDeps {
	deps := flows.SocialDeps{SignIn: signIn}
	if e.identity != nil {
		deps.Verifier = e.identity
	}
	if dir, ok := e.directory.(SocialUserDirectory); ok {
		deps.Directory = socialDirectoryAdapter{dir}
	}
	return deps
}

// directoryAdapter converts between the public and flow-local request types.
type directoryAdapter struct {
	dir UserDirectory
}

func (a directoryAdapter) VerifyCredentials(ctx context.Context, identifier, password string) (string, error) {
	return a.dir.VerifyCredentials(ctx, identifier, password)
}

func (a directoryAdapter) CreateUser(ctx context.Context, req flows.RegisterRequest) (string, error) {
	return a.dir.CreateUser(ctx, RegisterRequest{Email: req.Email, Password: req.Password, Name: req.Name})
}

func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.config.Security.StoreTimeout > 0 {
		return context.WithTimeout(ctx, e.config.Security.StoreTimeout)
	}
	return ctx, func() {}
}

/*
====================================
SIGN IN
====================================
*/

// SignIn starts a session for subject, replacing any previous one, and returns
// the new access token. The subject must already be authenticated by the caller.
func (e *Engine) SignIn(ctx context.Context, subject string) (string, error) {
	res, err := e.SignInWithResult(ctx, subject)
	if err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// SignInWithResult is SignIn returning the access token expiry alongside it.
func (e *Engine) SignInWithResult(ctx context.Context, subject string) (*TokenResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	res := e.flowSvc.SignIn(ctx, subject)
	if res.Failure != flows.SignInFailureNone {
		err := e.signInError(res)
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInFailure, false, res.Subject, err, nil)
		return nil, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignInSuccess, true, res.Subject, nil, nil)
	return e.tokenResult(res.AccessToken, res.ExpiresAt), nil
}

func (e *Engine) signInError(res flows.SignInResult) error {
	switch res.Failure {
	case flows.SignInFailureSubject:
		return ErrInvalidSubject
	case flows.SignInFailurePersist:
		return e.storeError("sign-in persist", res.Err)
	default:
		return issueError(res.Err)
	}
}

/*
====================================
REISSUE
====================================
*/

// Reissue exchanges a previously issued access token for a new one as long as
// the subject still holds a stored refresh token. The old access token is
// revoked for its remaining lifetime. An already revoked access token may
// still be exchanged; signing out is what ends reissue.
func (e *Engine) Reissue(ctx context.Context, accessToken string) (string, error) {
	res, err := e.ReissueWithResult(ctx, accessToken)
	if err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// ReissueWithResult is Reissue returning the new access token expiry alongside it.
func (e *Engine) ReissueWithResult(ctx context.Context, accessToken string) (*TokenResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	res := e.flowSvc.Reissue(ctx, accessToken)
	switch res.Failure {
	case flows.ReissueFailureNone:
	case flows.ReissueFailureRateLimited:
		if errors.Is(res.Err, rate.ErrRateLimited) {
			e.metricInc(MetricReissueRateLimited)
			e.emitAudit(ctx, auditEventReissueRateLimited, false, res.Subject, ErrReissueRateLimited, nil)
			return nil, rateLimitError(ErrReissueRateLimited, res.Err)
		}
		return nil, e.reissueFailed(ctx, res.Subject, e.storeError("reissue throttle", res.Err), "throttle_unavailable")
	case flows.ReissueFailureDecode:
		return nil, e.reissueFailed(ctx, "", tokenError(res.Err), "decode_failed")
	case flows.ReissueFailureSessionNotFound:
		e.metricInc(MetricSessionNotFound)
		return nil, e.reissueFailed(ctx, res.Subject, ErrRefreshTokenNotFound, "session_not_found")
	case flows.ReissueFailureInvalidRefresh:
		return nil, e.reissueFailed(ctx, res.Subject, ErrInvalidRefreshToken, "refresh_signature")
	case flows.ReissueFailureStore:
		return nil, e.reissueFailed(ctx, res.Subject, e.storeError("reissue session", res.Err), "session_store")
	case flows.ReissueFailureRevoke:
		return nil, e.reissueFailed(ctx, res.Subject, e.storeError("reissue revoke", res.Err), "revoke_failed")
	default:
		return nil, e.reissueFailed(ctx, res.Subject, issueError(res.Err), "issue_failed")
	}

	e.metricInc(MetricReissueSuccess)
	e.metricInc(MetricTokenRevoked)
	if res.Rotated {
		e.metricInc(MetricRefreshRotated)
	}
	e.emitAudit(ctx, auditEventReissueSuccess, true, res.Subject, nil, func() map[string]string {
		if !res.Rotated {
			return nil
		}
		return map[string]string{"refresh_rotated": "true"}
	})
	return e.tokenResult(res.AccessToken, res.ExpiresAt), nil
}

func (e *Engine) reissueFailed(ctx context.Context, subject string, err error, reason string) error {
	e.metricInc(MetricReissueFailure)
	e.emitAudit(ctx, auditEventReissueInvalid, false, subject, err, reasonMetadata(reason))
	return err
}

/*
====================================
SIGN OUT
====================================
*/

// SignOut revokes accessToken for its remaining lifetime and ends the
// subject's session. Signing out twice with the same token succeeds both times.
func (e *Engine) SignOut(ctx context.Context, accessToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	res := e.flowSvc.SignOut(ctx, accessToken)
	switch res.Failure {
	case flows.SignOutFailureNone:
	case flows.SignOutFailureDecode:
		return tokenError(res.Err)
	default:
		err := e.storeError("sign-out", res.Err)
		e.emitAudit(ctx, auditEventSignOut, false, res.Subject, err, nil)
		return err
	}

	e.metricInc(MetricSignOut)
	e.metricInc(MetricTokenRevoked)
	if res.RefreshRevoked {
		e.metricInc(MetricTokenRevoked)
	}
	e.emitAudit(ctx, auditEventSignOut, true, res.Subject, nil, nil)
	return nil
}

/*
====================================
VALIDATE
====================================
*/

// Validate strictly parses accessToken and rejects it when it has been
// revoked. Every token problem is reported as [ErrUnauthorized]; a Redis
// failure is [ErrStoreUnavailable].
func (e *Engine) Validate(ctx context.Context, accessToken string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	res := e.flowSvc.Validate(ctx, accessToken)
	switch res.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricValidateSuccess)
		return &AuthResult{Subject: res.Subject, ExpiresAt: res.ExpiresAt}, nil
	case flows.ValidateFailureRevoked:
		e.metricInc(MetricValidateRejected)
		e.metricInc(MetricRevokedTokenRejected)
		e.emitAudit(ctx, auditEventRevokedTokenUsed, false, res.Subject, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	case flows.ValidateFailureStore:
		return nil, e.storeError("validate", res.Err)
	default:
		e.metricInc(MetricValidateRejected)
		return nil, tokenError(res.Err)
	}
}

/*
====================================
CREDENTIALS
====================================
*/

// Login checks identifier and password with the user directory and signs the
// returned subject in. Failed checks count against the identifier and, with
// EnableIPThrottle, the client IP from [WithClientIP].
func (e *Engine) Login(ctx context.Context, identifier, password string) (string, error) {
	res, err := e.LoginWithResult(ctx, identifier, password)
	if err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// LoginWithResult is Login returning the access token expiry alongside it.
func (e *Engine) LoginWithResult(ctx context.Context, identifier, password string) (*TokenResult, error) {
	if !e.ready() || e.directory == nil {
		return nil, ErrEngineNotReady
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		e.metricInc(MetricInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	res := e.flowSvc.Login(ctx, identifier, password, clientIPFromContext(ctx))
	switch res.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureRateLimited:
		e.metricInc(MetricSignInRateLimited)
		e.emitAudit(ctx, auditEventSignInRateLimited, false, "", ErrSignInRateLimited, nil)
		return nil, rateLimitError(ErrSignInRateLimited, res.Err)
	case flows.LoginFailureInvalidCredentials:
		e.metricInc(MetricInvalidCredentials)
		e.emitAudit(ctx, auditEventSignInFailure, false, "", ErrInvalidCredentials, reasonMetadata("invalid_credentials"))
		return nil, ErrInvalidCredentials
	case flows.LoginFailureLimiter:
		return nil, e.storeError("sign-in throttle", res.Err)
	case flows.LoginFailureDirectory:
		err := directoryError(res.Err)
		e.metricInc(MetricDirectoryUnavailable)
		e.emitAudit(ctx, auditEventSignInFailure, false, "", err, reasonMetadata("directory"))
		return nil, err
	default:
		err := e.signInError(res.SignIn)
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInFailure, false, res.SignIn.Subject, err, nil)
		return nil, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignInSuccess, true, res.SignIn.Subject, nil, nil)
	return e.tokenResult(res.SignIn.AccessToken, res.SignIn.ExpiresAt), nil
}

// Register creates the user in the directory and signs the new subject in.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*TokenResult, error) {
	if !e.ready() || e.directory == nil {
		return nil, ErrEngineNotReady
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	res := e.flowSvc.Register(ctx, flows.RegisterRequest{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Name:     req.Name,
	})
	switch res.Failure {
	case flows.RegisterFailureNone:
	case flows.RegisterFailureDirectory:
		err := res.Err
		if !errors.Is(err, ErrAccountExists) && !errors.Is(err, ErrInvalidRegistration) {
			err = directoryError(err)
			e.metricInc(MetricDirectoryUnavailable)
		}
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, nil)
		return nil, err
	default:
		err := e.signInError(res.SignIn)
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, res.SignIn.Subject, err, nil)
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, res.SignIn.Subject, nil, nil)
	return e.tokenResult(res.SignIn.AccessToken, res.SignIn.ExpiresAt), nil
}

/*
====================================
HEALTH
====================================
*/

// Ping round-trips to Redis and returns the latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	latency, err := e.sessions.Ping(ctx)
	if err != nil {
		return 0, e.storeError("ping", err)
	}
	return latency, nil
}

func (e *Engine) tokenResult(access string, expiresAt time.Time) *TokenResult {
	ttl := time.Until(expiresAt)
	if ttl <= 0 || ttl > e.config.JWT.AccessTTL {
		ttl = e.config.JWT.AccessTTL
	}
	return &TokenResult{
		AccessToken: access,
		ExpiresAt:   expiresAt,
		TTL:         ttl.Truncate(time.Second),
	}
}

func (e *Engine) storeError(op string, err error) error {
	e.metricInc(MetricStoreUnavailable)
	e.logger.Warn("tokenAuth: store unavailable", "op", op, "error", err)
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// rateLimitError wraps a limiter refusal as a *RateLimitError of kind.
func rateLimitError(kind, cause error) error {
	retry, _ := rate.RetryAfter(cause)
	return &RateLimitError{Kind: kind, RetryAfter: retry}
}

// tokenError collapses every codec failure to ErrUnauthorized while keeping
// the underlying kind reachable through errors.Is.
func tokenError(err error) error {
	if errors.Is(err, claimcrypt.ErrDecrypt) {
		return fmt.Errorf("%w: %w", ErrUnauthorized, ErrClaimCrypto)
	}
	return fmt.Errorf("%w: %w", ErrUnauthorized, ErrTokenInvalid)
}

func issueError(err error) error {
	if errors.Is(err, claimcrypt.ErrEncrypt) {
		return fmt.Errorf("%w: %v", ErrClaimCrypto, err)
	}
	return fmt.Errorf("tokenAuth: issue token: %w", err)
}

func directoryError(err error) error {
	if errors.Is(err, ErrDirectoryUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
}
