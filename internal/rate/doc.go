// Package rate provides the Redis-backed fixed-window counters that throttle sign-in
// attempts and access-token reissues.
//
// # Window semantics
//
// Each counter is incremented by a Lua script that sets the expiry on the first
// hit of a window, so a counter never exists without its TTL. Key prefixes:
//
//	asl:<identifier>  failed sign-ins per identifier
//	asli:<ip>         failed sign-ins per client IP
//	arr:<subject>     reissues per subject
//
// An exhausted window is reported as a [*LimitError] carrying the remaining
// PTTL, which callers surface as Retry-After.
//
// This package does not decide what a limit hit means; the Engine maps it.
package rate
