package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokenAuth "github.com/MrEthical07/tokenAuth"
)

type fakeProvider struct {
	server     *httptest.Server
	discovered atomic.Int32
}

// newFakeProvider serves a discovery document and a userinfo endpoint keyed
// by access token.
func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		p.discovered.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                p.server.URL,
			"authorization_endpoint":                p.server.URL + "/authorize",
			"token_endpoint":                        p.server.URL + "/token",
			"jwks_uri":                              p.server.URL + "/keys",
			"userinfo_endpoint":                     p.server.URL + "/userinfo",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			body = map[string]any{"sub": "1", "email": "alice@example.com", "email_verified": true}
		case "Bearer unverified":
			body = map[string]any{"sub": "2", "email": "bob@example.com", "email_verified": false}
		case "Bearer no-email":
			body = map[string]any{"sub": "3"}
		case "Bearer boom":
			http.Error(w, "upstream", http.StatusBadGateway)
			return
		case "Bearer slow-down":
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		default:
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func TestVerifiedEmailThroughDiscovery(t *testing.T) {
	p := newFakeProvider(t)
	v, err := New(context.Background(), Config{Issuer: p.server.URL})
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.discovered.Load())

	for _, token := range []string{"good", "Bearer good", "bearer  good"} {
		email, err := v.VerifiedEmail(context.Background(), token)
		require.NoError(t, err, token)
		assert.Equal(t, "alice@example.com", email)
	}
}

func TestExplicitUserInfoURLSkipsDiscovery(t *testing.T) {
	p := newFakeProvider(t)
	v, err := New(context.Background(), Config{Issuer: p.server.URL, UserInfoURL: p.server.URL + "/userinfo"})
	require.NoError(t, err)

	email, err := v.VerifiedEmail(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
	assert.Zero(t, p.discovered.Load())
}

func TestVerifiedEmailRejections(t *testing.T) {
	p := newFakeProvider(t)
	v, err := New(context.Background(), Config{Issuer: p.server.URL})
	require.NoError(t, err)

	for _, token := range []string{"", "Bearer ", "revoked", "unverified", "no-email"} {
		_, err := v.VerifiedEmail(context.Background(), token)
		assert.ErrorIs(t, err, tokenAuth.ErrSocialIdentityRejected, "token %q", token)
	}
}

func TestAllowUnverifiedEmail(t *testing.T) {
	p := newFakeProvider(t)
	v, err := New(context.Background(), Config{Issuer: p.server.URL, AllowUnverifiedEmail: true})
	require.NoError(t, err)

	email, err := v.VerifiedEmail(context.Background(), "unverified")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", email)
}

func TestProviderOutageIsUnavailable(t *testing.T) {
	p := newFakeProvider(t)
	v, err := New(context.Background(), Config{Issuer: p.server.URL, Timeout: time.Second})
	require.NoError(t, err)

	for _, token := range []string{"boom", "slow-down"} {
		_, err := v.VerifiedEmail(context.Background(), token)
		assert.ErrorIs(t, err, tokenAuth.ErrIdentityProviderUnavailable, "token %q", token)
	}

	p.server.Close()
	_, err = v.VerifiedEmail(context.Background(), "good")
	assert.ErrorIs(t, err, tokenAuth.ErrIdentityProviderUnavailable)
}

func TestNewErrors(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, tokenAuth.ErrConfiguration)

	p := newFakeProvider(t)
	url := p.server.URL
	p.server.Close()
	_, err = New(context.Background(), Config{Issuer: url})
	assert.ErrorIs(t, err, tokenAuth.ErrIdentityProviderUnavailable)
}

func TestGoogleConfig(t *testing.T) {
	cfg := GoogleConfig()
	assert.Equal(t, "https://accounts.google.com", cfg.Issuer)
	assert.Equal(t, "https://www.googleapis.com/oauth2/v3/userinfo", cfg.UserInfoURL)
}
