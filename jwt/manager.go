package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSigningKeySize is the smallest accepted HS256 key (256 bits).
const MinSigningKeySize = 32

var (
	// ErrTokenInvalid is wrapped by every parse, signature, and claim failure.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrSigningKeyTooShort is returned by NewManager for keys under MinSigningKeySize.
	ErrSigningKeyTooShort = errors.New("signing key must be at least 32 bytes")
)

// ClaimCipher seals the subject claim. *claimcrypt.Cipher satisfies it.
type ClaimCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Config holds codec parameters. It is copied by NewManager and never mutated.
type Config struct {
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	SigningKey   []byte
	Issuer       string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. It has no subject.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Manager issues and verifies tokens. It is immutable after construction and safe
// for concurrent use.
type Manager struct {
	config Config
	cipher ClaimCipher
	now    func() time.Time
}

// NewManager validates cfg and returns a Manager bound to cipher.
func NewManager(cfg Config, cipher ClaimCipher) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid refresh TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if len(cfg.SigningKey) < MinSigningKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrSigningKeyTooShort, len(cfg.SigningKey))
	}
	if cipher == nil {
		return nil, errors.New("claim cipher required")
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)
	cfg.SigningKey = key

	return &Manager{config: cfg, cipher: cipher, now: time.Now}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (j *Manager) AccessTTL() time.Duration {
	return j.config.AccessTTL
}

// RefreshTTL returns the configured refresh-token lifetime.
func (j *Manager) RefreshTTL() time.Duration {
	return j.config.RefreshTTL
}

// IssueAccess seals subject into the user_id claim and signs a token valid for AccessTTL.
func (j *Manager) IssueAccess(subject string) (string, error) {
	sealed, err := j.cipher.Encrypt(subject)
	if err != nil {
		return "", err
	}

	now := j.now()
	claims := AccessClaims{
		UserID:           sealed,
		RegisteredClaims: j.registered(now, j.config.AccessTTL),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.config.SigningKey)
}

// IssueRefresh signs a subject-less token valid for RefreshTTL. The jti makes every
// issued refresh token a distinct string.
func (j *Manager) IssueRefresh() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	claims := RefreshClaims{RegisteredClaims: j.registered(j.now(), j.config.RefreshTTL)}
	claims.ID = id.String()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.config.SigningKey)
}

// SubjectOf strictly parses an access token and returns the decrypted subject.
func (j *Manager) SubjectOf(tokenStr string) (string, error) {
	return j.SubjectOfWithLeeway(tokenStr, j.config.Leeway)
}

// SubjectOfWithLeeway is SubjectOf with an explicit expiry tolerance.
func (j *Manager) SubjectOfWithLeeway(tokenStr string, leeway time.Duration) (string, error) {
	claims, err := j.ParseAccess(tokenStr, leeway)
	if err != nil {
		return "", err
	}

	subject, err := j.cipher.Decrypt(claims.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: user_id claim: %w", ErrTokenInvalid, err)
	}
	return subject, nil
}

// ParseAccess verifies signature, algorithm, and lifetime and returns the raw claims.
// The user_id claim is still sealed.
func (j *Manager) ParseAccess(tokenStr string, leeway time.Duration) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if leeway > 0 {
		options = append(options, jwt.WithLeeway(leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	claims := &AccessClaims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, j.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, jwt.ErrTokenInvalidClaims)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id claim", ErrTokenInvalid)
	}
	if claims.IssuedAt != nil {
		maxAllowed := j.now().Add(j.config.MaxFutureIAT)
		if claims.IssuedAt.Time.After(maxAllowed) {
			return nil, fmt.Errorf("%w: iat too far in the future", ErrTokenInvalid)
		}
	}

	return claims, nil
}

// ExpiresAt returns the exp claim of a correctly signed token, expired or not.
func (j *Manager) ExpiresAt(tokenStr string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := j.signatureParser().ParseWithClaims(tokenStr, claims, j.keyFunc); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", ErrTokenInvalid)
	}
	return claims.ExpiresAt.Time, nil
}

// RemainingTTL returns exp - now. The result is negative for expired tokens.
func (j *Manager) RemainingTTL(tokenStr string) (time.Duration, error) {
	exp, err := j.ExpiresAt(tokenStr)
	if err != nil {
		return 0, err
	}
	return exp.Sub(j.now()), nil
}

// VerifySignatureOnly reports whether tokenStr carries a valid HS256 signature from
// this Manager's key. Expiry is deliberately not checked.
func (j *Manager) VerifySignatureOnly(tokenStr string) bool {
	_, err := j.signatureParser().ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, j.keyFunc)
	return err == nil
}

func (j *Manager) registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    j.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (j *Manager) signatureParser() *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
}

func (j *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	return j.config.SigningKey, nil
}
