package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func signClaims(t *testing.T, m *Manager, claims gjwt.Claims) string {
	t.Helper()
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(m.config.SigningKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func sealedSubject(t *testing.T, m *Manager, subject string) string {
	t.Helper()
	sealed, err := m.cipher.Encrypt(subject)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	return sealed
}

func TestParseAccessRejectsAsymmetricAlgorithm(t *testing.T) {
	m := newTestManager(t)
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}

	claims := AccessClaims{UserID: sealedSubject(t, m, "u1"), RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.ParseAccess(token, 0); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected wrong algorithm to be rejected, got %v", err)
	}
}

func TestParseAccessIssuerAndLeeway(t *testing.T) {
	m := newTestManager(t)
	m.config.Issuer = "tokenauth"
	m.config.Leeway = 30 * time.Second
	sealed := sealedSubject(t, m, "u1")
	now := time.Now()

	tests := []struct {
		name   string
		issuer string
		exp    time.Time
		iat    time.Time
		ok     bool
	}{
		{name: "valid", issuer: "tokenauth", exp: now.Add(time.Minute), iat: now, ok: true},
		{name: "wrong issuer", issuer: "other", exp: now.Add(time.Minute), iat: now},
		{name: "expired within leeway", issuer: "tokenauth", exp: now.Add(-15 * time.Second), iat: now.Add(-time.Minute), ok: true},
		{name: "expired beyond leeway", issuer: "tokenauth", exp: now.Add(-2 * time.Minute), iat: now.Add(-3 * time.Minute)},
		{name: "iat far in future", issuer: "tokenauth", exp: now.Add(2 * time.Hour), iat: now.Add(time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signClaims(t, m, AccessClaims{UserID: sealed, RegisteredClaims: gjwt.RegisteredClaims{
				Issuer:    tt.issuer,
				ExpiresAt: gjwt.NewNumericDate(tt.exp),
				IssuedAt:  gjwt.NewNumericDate(tt.iat),
			}})
			_, err := m.ParseAccess(token, m.config.Leeway)
			if tt.ok && err != nil {
				t.Fatalf("expected token to pass: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestParseAccessRequiresExpiry(t *testing.T) {
	m := newTestManager(t)
	token := signClaims(t, m, AccessClaims{UserID: sealedSubject(t, m, "u1"), RegisteredClaims: gjwt.RegisteredClaims{
		IssuedAt: gjwt.NewNumericDate(time.Now()),
	}})

	if _, err := m.ParseAccess(token, 0); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected missing exp to be rejected, got %v", err)
	}
	if _, err := m.ExpiresAt(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ExpiresAt to reject missing exp, got %v", err)
	}
}

func TestParseAccessRequiresUserID(t *testing.T) {
	m := newTestManager(t)
	token := signClaims(t, m, AccessClaims{RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}})

	if _, err := m.ParseAccess(token, 0); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected missing user_id to be rejected, got %v", err)
	}
}
