// Package social confirms third-party OAuth2 access tokens against an OpenID
// Connect userinfo endpoint.
//
// [Verifier] implements [tokenAuth.IdentityVerifier]. The userinfo endpoint
// comes from the issuer's discovery document, or from Config.UserInfoURL when
// discovery is not wanted. A 2xx response with a verified email confirms the
// token; any other 4xx, a missing email, or an unverified one wraps
// ErrSocialIdentityRejected. Transport failures, 429 and 5xx wrap
// ErrIdentityProviderUnavailable.
package social
