package middleware

import "net/http"

// RequireBearer is [Guard] restricted to the Authorization header. Use it
// for API clients that never hold the cookie.
func RequireBearer(v Validator) func(http.Handler) http.Handler {
	return guard(v, BearerToken)
}
