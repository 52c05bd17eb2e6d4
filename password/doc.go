// Package password hashes and verifies passwords with Argon2id.
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsRehash] reports hashes produced with weaker parameters so
// the caller can re-hash after the next successful check.
//
// Length and composition policy belongs to the caller. This package only
// bounds input size and never logs plaintext.
package password
