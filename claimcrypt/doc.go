// Package claimcrypt seals a single opaque string (the token subject) with an
// AEAD so it is not readable from a token body.
//
// # Wire format
//
// Ciphertexts are base64(nonce[12] || sealed || tag[16]) using standard padded
// base64. Both supported algorithms share this layout.
//
// # Architecture boundaries
//
// This package owns key validation and sealing only. It does NOT parse tokens,
// talk to Redis, or decide how decryption failures are reported to callers.
//
// # What this package must NOT do
//
//   - Import tokenAuth, jwt, session, or revocation.
//   - Hold mutable state after construction.
package claimcrypt
