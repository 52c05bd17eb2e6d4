// Package directory is an HTTP client for the external user directory that
// owns credentials and user records.
//
// [Client] implements [tokenAuth.UserDirectory]. It posts JSON to
// /auth/signIn, /auth/signUp and /auth/social/signUp under a base URL and maps response statuses
// onto the tokenAuth sentinel errors:
//
//	200 (sign-in), 201 (sign-up)  success; the subject is the email
//	400                           ErrInvalidRegistration (sign-up) / ErrInvalidCredentials (sign-in)
//	401, 403, 404                 ErrInvalidCredentials
//	409                           ErrAccountExists
//	anything else, transport      ErrDirectoryUnavailable
//
// [Memory] is an in-process directory with Argon2id hashes for demos,
// load tests, and development servers.
package directory
