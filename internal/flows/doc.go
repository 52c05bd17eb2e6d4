// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunSignIn, RunReissue, RunSignOut, RunValidate, RunLogin,
// RunRegister) accepts a typed dependency struct and returns a result carrying a
// failure kind. The Engine maps failure kinds to public errors, metrics, and
// audit events.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the token codec, session store, revocation
// list, rate limiter, and user directory. They do NOT own any of these resources;
// ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import tokenAuth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
