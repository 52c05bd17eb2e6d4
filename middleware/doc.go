// Package middleware exposes HTTP middleware that admits only requests
// carrying a live, unrevoked access token.
//
// # Guards
//
//   - [Guard] accepts a bearer Authorization header or the accessToken cookie.
//   - [RequireBearer] accepts only the Authorization header.
//   - [RequireCookie] accepts only the accessToken cookie.
//
// Each guard calls Validate on the engine and injects the resulting
// [tokenAuth.AuthResult] into the request context. Token and crypto failures
// answer 401; a store outage answers 503.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the engine).
//   - Access Redis (the engine handles I/O).
package middleware
