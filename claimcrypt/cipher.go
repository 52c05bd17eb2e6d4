package claimcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the only accepted key length (256 bits).
const KeySize = 32

const (
	nonceSize = 12
	tagSize   = 16
)

var (
	// ErrInvalidKeySize is returned by New when the key is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.New("claim cipher key must be 32 bytes")
	// ErrUnsupportedAlgorithm is returned by New for unknown algorithms.
	ErrUnsupportedAlgorithm = errors.New("unsupported claim cipher algorithm")
	// ErrEncrypt wraps nonce generation failures.
	ErrEncrypt = errors.New("claim encryption failed")
	// ErrDecrypt is wrapped by every Decrypt failure.
	ErrDecrypt = errors.New("claim decryption failed")
)

// Algorithm selects the AEAD construction.
type Algorithm string

const (
	// AES256GCM is the default algorithm.
	AES256GCM Algorithm = "aes-256-gcm"
	// ChaCha20Poly1305 uses the IETF variant with a 12-byte nonce.
	ChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// Cipher encrypts and decrypts subject claims. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	alg  Algorithm
}

// New builds a Cipher for alg. An empty alg selects AES256GCM.
//
// Key problems are reported here and never on first use.
func New(key []byte, alg Algorithm) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	if alg == "" {
		alg = AES256GCM
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case AES256GCM:
		block, blockErr := aes.NewCipher(key)
		if blockErr != nil {
			return nil, blockErr
		}
		aead, err = cipher.NewGCM(block)
	case ChaCha20Poly1305:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
	if err != nil {
		return nil, err
	}
	if aead.NonceSize() != nonceSize || aead.Overhead() != tagSize {
		return nil, fmt.Errorf("%w: unexpected nonce or tag size", ErrUnsupportedAlgorithm)
	}

	return &Cipher{aead: aead, alg: alg}, nil
}

// Algorithm reports the configured AEAD.
func (c *Cipher) Algorithm() Algorithm {
	return c.alg
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	buf := make([]byte, nonceSize, nonceSize+len(plaintext)+tagSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncrypt, err)
	}

	sealed := c.aead.Seal(buf, buf[:nonceSize], []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed base64", ErrDecrypt)
	}
	if len(raw) < nonceSize+tagSize {
		return "", fmt.Errorf("%w: payload truncated", ErrDecrypt)
	}

	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}
	return string(plain), nil
}
