package middleware

import "net/http"

// RequireCookie is [Guard] restricted to the accessToken cookie.
func RequireCookie(v Validator) func(http.Handler) http.Handler {
	return guard(v, CookieToken)
}
