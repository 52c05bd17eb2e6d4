// Package jwt builds and parses the HS256-signed access and refresh tokens used by
// tokenAuth.
//
// # Token shapes
//
// Access tokens carry {"user_id": <sealed subject>, "iat", "exp"}. Refresh tokens carry
// only {"iat", "exp", "jti"}; the subject binding for a refresh token lives in the
// session store key, never in the token body.
//
// # Architecture boundaries
//
// The [Manager] verifies signatures and lifetimes and delegates subject sealing to a
// [ClaimCipher]. It never touches Redis; refresh-token lifetime is enforced by the
// session store's TTL, which is why [Manager.VerifySignatureOnly] ignores expiry.
package jwt
