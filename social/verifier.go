package social

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	tokenAuth "github.com/MrEthical07/tokenAuth"
)

const defaultTimeout = 5 * time.Second

// Config configures a [Verifier].
type Config struct {
	// Issuer is the OpenID provider, e.g. https://accounts.google.com.
	Issuer string
	// UserInfoURL skips discovery when set.
	UserInfoURL string
	// AllowUnverifiedEmail accepts identities whose email_verified claim is false.
	AllowUnverifiedEmail bool
	// Timeout bounds each request when HTTPClient is nil. Defaults to 5s.
	Timeout time.Duration
	// HTTPClient overrides the transport. Optional.
	HTTPClient *http.Client
}

// GoogleConfig targets Google's OAuth2 v3 userinfo endpoint without discovery.
func GoogleConfig() Config {
	return Config{
		Issuer:      "https://accounts.google.com",
		UserInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
	}
}

// Verifier checks provider access tokens. It is safe for concurrent use.
type Verifier struct {
	provider        *oidc.Provider
	client          *http.Client
	allowUnverified bool
}

var _ tokenAuth.IdentityVerifier = (*Verifier)(nil)

// New builds a Verifier. Without cfg.UserInfoURL it fetches the issuer's
// discovery document, so ctx bounds that request.
func New(ctx context.Context, cfg Config) (*Verifier, error) {
	issuer := strings.TrimRight(strings.TrimSpace(cfg.Issuer), "/")
	if issuer == "" {
		return nil, fmt.Errorf("%w: social issuer is required", tokenAuth.ErrConfiguration)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	var provider *oidc.Provider
	if cfg.UserInfoURL != "" {
		provider = (&oidc.ProviderConfig{
			IssuerURL:   issuer,
			UserInfoURL: cfg.UserInfoURL,
		}).NewProvider(oidc.ClientContext(ctx, client))
	} else {
		var err error
		provider, err = oidc.NewProvider(oidc.ClientContext(ctx, client), issuer)
		if err != nil {
			return nil, fmt.Errorf("%w: discover %s: %v", tokenAuth.ErrIdentityProviderUnavailable, issuer, err)
		}
	}

	return &Verifier{provider: provider, client: client, allowUnverified: cfg.AllowUnverifiedEmail}, nil
}

// VerifiedEmail calls the userinfo endpoint with providerToken and returns the
// email it reports. A leading "Bearer " is stripped, so a raw Authorization
// header value is accepted.
func (v *Verifier) VerifiedEmail(ctx context.Context, providerToken string) (string, error) {
	token := bearerValue(providerToken)
	if token == "" {
		return "", fmt.Errorf("%w: empty provider token", tokenAuth.ErrSocialIdentityRejected)
	}

	rec := &statusRecorder{base: v.client.Transport}
	client := *v.client
	client.Transport = rec

	info, err := v.provider.UserInfo(oidc.ClientContext(ctx, &client),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	if err != nil {
		if rec.status == 0 || rec.status == http.StatusTooManyRequests || rec.status >= http.StatusInternalServerError {
			return "", fmt.Errorf("%w: %v", tokenAuth.ErrIdentityProviderUnavailable, err)
		}
		return "", fmt.Errorf("%w: %v", tokenAuth.ErrSocialIdentityRejected, err)
	}

	if info.Email == "" {
		return "", fmt.Errorf("%w: userinfo carries no email", tokenAuth.ErrSocialIdentityRejected)
	}
	if !info.EmailVerified && !v.allowUnverified {
		return "", fmt.Errorf("%w: email not verified by provider", tokenAuth.ErrSocialIdentityRejected)
	}
	return info.Email, nil
}

func bearerValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		v = strings.TrimSpace(v[7:])
	}
	return v
}

// statusRecorder keeps the status of the last response so failures can be
// told apart from rejections.
type statusRecorder struct {
	base   http.RoundTripper
	status int
}

func (r *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	base := r.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err == nil {
		r.status = resp.StatusCode
	}
	return resp, err
}
