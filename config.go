package tokenAuth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/tokenAuth/claimcrypt"
)

// Config holds every tunable of the engine. Secrets are not part of Config;
// they arrive through [Keys].
type Config struct {
	JWT        JWTConfig
	Cipher     CipherConfig
	Session    SessionConfig
	Revocation RevocationConfig
	Security   SecurityConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls token lifetimes and parsing tolerance.
//
// ReissueLeeway lets Reissue accept an access token that expired at most that
// long ago. Zero means an expired access token can never be reissued.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
	ReissueLeeway time.Duration
	MaxFutureIAT  time.Duration
}

/*
====================================
CIPHER CONFIG
====================================
*/

// CipherConfig selects the AEAD used to seal the subject claim.
type CipherConfig struct {
	Algorithm claimcrypt.Algorithm
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls refresh token storage.
type SessionConfig struct {
	RedisPrefix            string
	RotateRefreshOnReissue bool
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig controls the blacklist.
type RevocationConfig struct {
	RedisPrefix            string
	RevokeRefreshOnSignOut bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds throttling and hardening switches.
type SecurityConfig struct {
	ProductionMode          bool
	EnableIPThrottle        bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	EnableReissueThrottle   bool
	MaxReissueAttempts      int
	ReissueCooldownDuration time.Duration
	// StoreTimeout bounds every Redis round-trip made by an Engine method.
	// Zero leaves deadlines to the caller's context.
	StoreTimeout time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
//
// SinkTimeout bounds the context handed to each [AuditSink.Emit] call. Zero
// means no deadline.
type AuditConfig struct {
	Enabled     bool
	BufferSize  int
	DropIfFull  bool
	SinkTimeout time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration: one-hour access tokens,
// seven-day refresh tokens, AES-256-GCM claims, no refresh rotation.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     time.Hour,
			RefreshTTL:    7 * 24 * time.Hour,
			Leeway:        0,
			ReissueLeeway: 0,
			MaxFutureIAT:  10 * time.Minute,
		},
		Cipher: CipherConfig{
			Algorithm: claimcrypt.AES256GCM,
		},
		Session: SessionConfig{
			RedisPrefix:            "refreshToken:",
			RotateRefreshOnReissue: false,
		},
		Revocation: RevocationConfig{
			RedisPrefix:            "blacklist:",
			RevokeRefreshOnSignOut: true,
		},
		Security: SecurityConfig{
			ProductionMode:          false,
			EnableIPThrottle:        false,
			MaxLoginAttempts:        5,
			LoginCooldownDuration:   15 * time.Minute,
			EnableReissueThrottle:   true,
			MaxReissueAttempts:      20,
			ReissueCooldownDuration: time.Minute,
			StoreTimeout:            0,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks internal consistency. Every returned error wraps [ErrConfiguration].
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func (c *Config) validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.ReissueLeeway < 0 {
		return errors.New("JWT ReissueLeeway must be >= 0")
	}
	if c.JWT.ReissueLeeway > c.JWT.RefreshTTL {
		return errors.New("JWT ReissueLeeway must be <= RefreshTTL")
	}
	if c.JWT.MaxFutureIAT < 0 || c.JWT.MaxFutureIAT > 24*time.Hour {
		return errors.New("JWT MaxFutureIAT must be between 0 and 24h")
	}

	// Cipher
	switch c.Cipher.Algorithm {
	case "", claimcrypt.AES256GCM, claimcrypt.ChaCha20Poly1305:
		// valid (empty treated as AES-256-GCM)
	default:
		return fmt.Errorf("Cipher Algorithm %q is not supported", c.Cipher.Algorithm)
	}

	// Redis key layout
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if strings.TrimSpace(c.Revocation.RedisPrefix) == "" {
		return errors.New("Revocation RedisPrefix must not be empty")
	}
	if c.Session.RedisPrefix == c.Revocation.RedisPrefix {
		return errors.New("Session and Revocation RedisPrefix must differ")
	}

	// Security
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0")
	}
	if c.Security.EnableReissueThrottle {
		if c.Security.MaxReissueAttempts <= 0 {
			return errors.New("Security MaxReissueAttempts must be > 0 when EnableReissueThrottle is true")
		}
		if c.Security.ReissueCooldownDuration <= 0 {
			return errors.New("Security ReissueCooldownDuration must be > 0 when EnableReissueThrottle is true")
		}
	}
	if c.Security.StoreTimeout < 0 {
		return errors.New("Security StoreTimeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}
	if c.Audit.SinkTimeout < 0 {
		return errors.New("Audit SinkTimeout must be >= 0")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	if c.Security.ProductionMode {
		if c.JWT.AccessTTL > time.Hour {
			return errors.New("ProductionMode requires JWT AccessTTL <= 1h")
		}
		if c.JWT.RefreshTTL > 30*24*time.Hour {
			return errors.New("ProductionMode requires JWT RefreshTTL <= 30d")
		}
		if c.JWT.ReissueLeeway > c.JWT.AccessTTL {
			return errors.New("ProductionMode requires JWT ReissueLeeway <= AccessTTL")
		}
		if !c.Revocation.RevokeRefreshOnSignOut {
			return errors.New("ProductionMode requires Revocation RevokeRefreshOnSignOut")
		}
		if !c.Security.EnableReissueThrottle {
			return errors.New("ProductionMode requires Security EnableReissueThrottle")
		}
	}

	return nil
}
