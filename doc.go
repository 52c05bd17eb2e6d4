// Package tokenAuth issues, validates, revokes, and reissues bearer session
// credentials for a service whose identity checks live in an external user
// directory.
//
// An access token is a short-lived HS256 JWT carrying the AEAD-encrypted
// subject. A refresh token carries no subject; the subject binding lives in
// Redis under refreshToken:<subject>, one live refresh token per subject.
// Revoked access tokens are kept under blacklist:<token> for exactly their
// remaining lifetime.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// tokenAuth is the public surface. It exposes [Engine], [Builder], [Config],
// [Keys], and value types (TokenResult, AuthResult, MetricsSnapshot). Flow
// orchestration and rate limiting live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Handle passwords. Credential checks are delegated to [UserDirectory].
//   - Expose Redis clients or key layouts in its public API.
//   - Read secrets from the environment outside [LoadKeys].
//   - Import any sub-package that re-imports tokenAuth (no import cycles).
package tokenAuth
