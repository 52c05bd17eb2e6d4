package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	tokenAuth "github.com/MrEthical07/tokenAuth"
)

// AccessTokenCookie is the cookie that carries the access token.
const AccessTokenCookie = "accessToken"

// Validator is the subset of [tokenAuth.Engine] used by the guards.
type Validator interface {
	Validate(ctx context.Context, accessToken string) (*tokenAuth.AuthResult, error)
}

// TokenSource extracts an access token from a request.
type TokenSource func(r *http.Request) (string, bool)

type authResultContextKey struct{}

// AuthResultFromContext returns the result stored by a guard.
func AuthResultFromContext(ctx context.Context) (*tokenAuth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*tokenAuth.AuthResult)
	return res, ok
}

// Guard admits requests whose bearer header or accessToken cookie validates.
func Guard(v Validator) func(http.Handler) http.Handler {
	return guard(v, TokenFromRequest)
}

func guard(v Validator, source TokenSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := source(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := v.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, tokenAuth.ErrStoreUnavailable) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest prefers the bearer header and falls back to the cookie.
func TokenFromRequest(r *http.Request) (string, bool) {
	if token, ok := BearerToken(r); ok {
		return token, true
	}
	return CookieToken(r)
}

// BearerToken reads "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	return bearerToken(r.Header.Get("Authorization"))
}

// CookieToken reads the accessToken cookie.
func CookieToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(AccessTokenCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
