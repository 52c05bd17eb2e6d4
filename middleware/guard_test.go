package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokenAuth "github.com/MrEthical07/tokenAuth"
)

type stubValidator struct {
	token string
	err   error
	calls int
}

func (s *stubValidator) Validate(_ context.Context, token string) (*tokenAuth.AuthResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, tokenAuth.ErrUnauthorized
	}
	return &tokenAuth.AuthResult{Subject: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func subjectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := AuthResultFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(res.Subject))
	})
}

func serve(mw func(http.Handler) http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mw(subjectHandler()).ServeHTTP(rec, r)
	return rec
}

func TestGuardAcceptsBearerAndCookie(t *testing.T) {
	v := &stubValidator{token: "good"}

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer good")
	rec := serve(Guard(v), r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	r = httptest.NewRequest(http.MethodGet, "/me", nil)
	r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"})
	rec = serve(Guard(v), r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardRejects(t *testing.T) {
	cases := map[string]func(r *http.Request){
		"no token":       func(*http.Request) {},
		"basic scheme":   func(r *http.Request) { r.Header.Set("Authorization", "Basic good") },
		"empty bearer":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		"wrong token":    func(r *http.Request) { r.Header.Set("Authorization", "Bearer other") },
		"empty cookie":   func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: ""}) },
		"foreign cookie": func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "good"}) },
	}

	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			setup(r)
			rec := serve(Guard(&stubValidator{token: "good"}), r)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGuardNilValidator(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer good")
	rec := serve(Guard(nil), r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardStoreOutageIs503(t *testing.T) {
	v := &stubValidator{err: fmt.Errorf("%w: connection refused", tokenAuth.ErrStoreUnavailable)}

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer good")
	rec := serve(Guard(v), r)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireBearerIgnoresCookie(t *testing.T) {
	v := &stubValidator{token: "good"}

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"})
	rec := serve(RequireBearer(v), r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, v.calls)
}

func TestRequireCookieIgnoresBearer(t *testing.T) {
	v := &stubValidator{token: "good"}

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer good")
	rec := serve(RequireCookie(v), r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, v.calls)
}

func TestGuardWithEngineRejectsSignedOutToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	engine, err := tokenAuth.New().
		WithKeys(tokenAuth.Keys{
			SigningKey: []byte("0123456789abcdef0123456789abcdef-signing"),
			CipherKey:  []byte("abcdefghijklmnopqrstuvwxyz012345"),
		}).
		WithRedis(rdb).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	access, err := engine.SignIn(context.Background(), "alice@example.com")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+access)
	rec := serve(Guard(engine), r)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", rec.Body.String())

	require.NoError(t, engine.SignOut(context.Background(), access))

	r = httptest.NewRequest(http.MethodGet, "/me", nil)
	r.Header.Set("Authorization", "Bearer "+access)
	rec = serve(Guard(engine), r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
