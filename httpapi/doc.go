// Package httpapi is the HTTP transport for the token engine.
//
// Routes (all JSON, all under /auth):
//
//	POST /auth/signIn         {userEmail, userPassword}            200 + accessToken cookie
//	POST /auth/signUp         {userName, userEmail, userPassword}  201 + accessToken cookie
//	POST /auth/social/signIn  bearer provider token + {userEmail}  200 + accessToken cookie
//	POST /auth/social/signUp  bearer provider token + {userName,   201 + accessToken cookie
//	                          userEmail}
//	POST /auth/reissue        accessToken cookie                   200 + fresh cookie
//	POST /auth/logout         accessToken cookie                   200 + expired cookie
//	GET  /auth/me             bearer or cookie                     200 {subject, expiresAt}
//	GET  /health                                                   200 or 503
//
// The access token travels only in an HttpOnly, SameSite=Strict cookie
// whose Max-Age is the token TTL. Social routes take the identity
// provider's access token as the Authorization bearer and answer 501 when no
// verifier is configured. Every token and credential failure is a bare
// 401; store, directory and identity provider outages are 503.
package httpapi
