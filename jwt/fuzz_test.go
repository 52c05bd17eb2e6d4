package jwt

import (
	"errors"
	"testing"
)

// FuzzSubjectOf feeds arbitrary strings to the access token parser.
// Nothing may panic and every rejection must wrap ErrTokenInvalid or a
// claim decryption error.
func FuzzSubjectOf(f *testing.F) {
	m := newTestManager(f)

	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.eyJ1c2VyX2lkIjoieCJ9.")
	f.Add("!!!not-base64!!!")
	if tok, err := m.IssueAccess("alice@example.com"); err == nil {
		f.Add(tok)
		f.Add(tok[:len(tok)-2])
	}
	if tok, err := m.IssueRefresh(); err == nil {
		f.Add(tok)
	}

	f.Fuzz(func(t *testing.T, token string) {
		subject, err := m.SubjectOf(token)
		if err != nil {
			if subject != "" {
				t.Fatalf("subject %q returned alongside error %v", subject, err)
			}
			return
		}
		if subject == "" {
			t.Fatal("empty subject accepted")
		}
	})
}

// FuzzRemainingTTL checks that the expiry helpers never panic and agree on
// validity.
func FuzzRemainingTTL(f *testing.F) {
	m := newTestManager(f)

	f.Add("")
	f.Add("x.y.z")
	if tok, err := m.IssueAccess("bob@example.com"); err == nil {
		f.Add(tok)
	}

	f.Fuzz(func(t *testing.T, token string) {
		_, ttlErr := m.RemainingTTL(token)
		_, expErr := m.ExpiresAt(token)
		if (ttlErr == nil) != (expErr == nil) {
			t.Fatalf("RemainingTTL err=%v, ExpiresAt err=%v", ttlErr, expErr)
		}
		if ttlErr != nil && !errors.Is(ttlErr, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", ttlErr)
		}
	})
}
