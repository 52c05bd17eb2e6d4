// Package session provides the Redis-backed single-slot refresh-token store.
//
// # Key layout
//
// One key per subject: "<prefix><subject>" (default prefix "refreshToken:") holding the
// current refresh token string with a TTL equal to the refresh lifetime. A write
// replaces whatever was there; there is no compare-and-swap.
//
// # Architecture boundaries
//
// This package owns Redis reads and writes for sessions. It does NOT parse tokens or
// decide whether a stored token is acceptable; the Engine does that.
//
// # What this package must NOT do
//
//   - Import tokenAuth, jwt, or revocation (no upward imports).
//   - Retry Redis calls. Failures surface as [ErrRedisUnavailable].
package session
