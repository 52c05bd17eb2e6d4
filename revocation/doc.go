// Package revocation implements the access-token blacklist.
//
// Entries live under "<prefix><token>" (default prefix "blacklist:") with a fixed
// sentinel value and a TTL equal to the token's own remaining lifetime, so the list
// only ever holds tokens that are still otherwise valid. Entries are never deleted
// explicitly.
package revocation
