package tokenAuth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/MrEthical07/tokenAuth/claimcrypt"
	"github.com/MrEthical07/tokenAuth/jwt"
)

const (
	// SigningKeyName is the lookup name of the HS256 signing secret.
	SigningKeyName = "JWT_SECRET"
	// CipherKeyName is the lookup name of the 32-byte claim encryption key.
	CipherKeyName = "AES_SECRET"

	base64KeyPrefix = "base64:"
)

// Keys carries the two process-wide secrets. Build it once at startup with
// [LoadKeys] and hand it to [Builder.WithKeys].
type Keys struct {
	SigningKey []byte
	CipherKey  []byte
}

// KeySource looks a secret up by name. It returns "" with a nil error when the
// source does not define the name.
type KeySource func(name string) (string, error)

// FromValue serves secrets from an explicit map, typically populated from a
// config file.
func FromValue(values map[string]string) KeySource {
	return func(name string) (string, error) {
		return values[name], nil
	}
}

// FromDotenv serves secrets from .env files. Missing files are skipped; a file
// that exists but cannot be parsed is an error.
func FromDotenv(paths ...string) KeySource {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return func(name string) (string, error) {
		for _, path := range paths {
			values, err := godotenv.Read(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return "", fmt.Errorf("read %s: %w", path, err)
			}
			if v := values[name]; strings.TrimSpace(v) != "" {
				return v, nil
			}
		}
		return "", nil
	}
}

// FromEnv serves secrets from the process environment.
func FromEnv() KeySource {
	return func(name string) (string, error) {
		return os.Getenv(name), nil
	}
}

// LoadKeys resolves both secrets by asking each source in order; the first
// non-blank value wins. A name no source defines is an [ErrConfiguration].
//
// Values prefixed with "base64:" are decoded; anything else is used as raw
// bytes. The cipher key must decode to exactly 32 bytes and the signing key
// to at least 32.
func LoadKeys(sources ...KeySource) (Keys, error) {
	signing, err := lookupKey(SigningKeyName, sources)
	if err != nil {
		return Keys{}, err
	}
	cipherKey, err := lookupKey(CipherKeyName, sources)
	if err != nil {
		return Keys{}, err
	}

	keys := Keys{SigningKey: signing, CipherKey: cipherKey}
	if err := keys.Validate(); err != nil {
		return Keys{}, err
	}
	return keys, nil
}

// Validate checks key lengths. Errors wrap [ErrConfiguration].
func (k Keys) Validate() error {
	if len(k.SigningKey) < jwt.MinSigningKeySize {
		return fmt.Errorf("%w: %s must be at least %d bytes, got %d",
			ErrConfiguration, SigningKeyName, jwt.MinSigningKeySize, len(k.SigningKey))
	}
	if len(k.CipherKey) != claimcrypt.KeySize {
		return fmt.Errorf("%w: %s must be exactly %d bytes, got %d",
			ErrConfiguration, CipherKeyName, claimcrypt.KeySize, len(k.CipherKey))
	}
	return nil
}

func (k Keys) clone() Keys {
	return Keys{
		SigningKey: cloneBytes(k.SigningKey),
		CipherKey:  cloneBytes(k.CipherKey),
	}
}

func lookupKey(name string, sources []KeySource) ([]byte, error) {
	for _, source := range sources {
		if source == nil {
			continue
		}
		raw, err := source(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s lookup: %v", ErrConfiguration, name, err)
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if encoded, ok := strings.CutPrefix(raw, base64KeyPrefix); ok {
			decoded, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, fmt.Errorf("%w: %s is not valid base64", ErrConfiguration, name)
			}
			return decoded, nil
		}
		return []byte(raw), nil
	}
	return nil, fmt.Errorf("%w: %s is not set", ErrConfiguration, name)
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
