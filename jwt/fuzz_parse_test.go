package jwt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FuzzParseAccessClaims signs arbitrary claim JSON with the real key so the
// fuzzer reaches claim validation rather than stopping at the signature.
// Goal: no panics; a parsed token always has a user_id and an exp.
func FuzzParseAccessClaims(f *testing.F) {
	m := newTestManager(f)

	now := time.Now().Unix()
	seed := func(v map[string]any) {
		raw, err := json.Marshal(v)
		if err != nil {
			f.Fatal(err)
		}
		f.Add(raw)
	}
	seed(map[string]any{"user_id": "x", "iat": now, "exp": now + 60})
	seed(map[string]any{"user_id": "x", "exp": now - 60})
	seed(map[string]any{"user_id": "", "exp": now + 60})
	seed(map[string]any{"user_id": 7, "exp": "soon"})
	seed(map[string]any{"iat": now + 86400, "exp": now + 90000, "user_id": "x"})
	f.Add([]byte("{"))
	f.Add([]byte("null"))

	f.Fuzz(func(t *testing.T, payload []byte) {
		var claims jwt.MapClaims
		if err := json.Unmarshal(payload, &claims); err != nil {
			return
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.SigningKey)
		if err != nil {
			return
		}

		parsed, err := m.ParseAccess(token, 0)
		if err != nil {
			return
		}
		if parsed == nil {
			t.Fatal("ParseAccess returned nil claims without error")
		}
		if parsed.UserID == "" {
			t.Fatal("accepted token without user_id")
		}
		if parsed.ExpiresAt == nil {
			t.Fatal("accepted token without exp")
		}
	})
}
