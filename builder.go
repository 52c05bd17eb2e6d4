package tokenAuth

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/tokenAuth/claimcrypt"
	"github.com/MrEthical07/tokenAuth/internal/rate"
	"github.com/MrEthical07/tokenAuth/jwt"
	"github.com/MrEthical07/tokenAuth/revocation"
	"github.com/MrEthical07/tokenAuth/session"
)

// Builder assembles an [Engine]. A Builder is single-use: Build may succeed once.
//
//	engine, err := tokenAuth.New().
//		WithConfig(cfg).
//		WithKeys(keys).
//		WithRedis(rdb).
//		WithDirectory(dir).
//		Build()
type Builder struct {
	config    Config
	keys      Keys
	redis     redis.UniversalClient
	directory UserDirectory
	identity  IdentityVerifier
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithKeys sets the signing and claim encryption secrets. The slices are copied.
func (b *Builder) WithKeys(keys Keys) *Builder {
	b.keys = keys.clone()
	return b
}

// WithRedis sets the client backing sessions, revocations, and rate limits.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the user directory used by Login and Register. It is
// optional; without it those two methods return [ErrEngineNotReady].
func (b *Builder) WithDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

// WithIdentityVerifier enables SocialSignIn and SocialRegister. SocialRegister
// additionally needs a directory implementing [SocialUserDirectory].
func (b *Builder) WithIdentityVerifier(v IdentityVerifier) *Builder {
	b.identity = v
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the destination of audit events. It has no effect unless
// Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates configuration and keys and wires every component. Key and
// configuration problems are reported here, never on first use, and wrap
// [ErrConfiguration].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config

	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := b.keys.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// -------- CLAIM CIPHER --------
	cipher, err := claimcrypt.New(b.keys.CipherKey, cfg.Cipher.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewManager(jwt.Config{
		AccessTTL:    cfg.JWT.AccessTTL,
		RefreshTTL:   cfg.JWT.RefreshTTL,
		SigningKey:   b.keys.SigningKey,
		Issuer:       cfg.JWT.Issuer,
		Leeway:       cfg.JWT.Leeway,
		MaxFutureIAT: cfg.JWT.MaxFutureIAT,
	}, cipher)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	engine := &Engine{
		config:      cfg,
		codec:       codec,
		sessions:    session.NewStore(b.redis, cfg.Session.RedisPrefix),
		revocations: revocation.NewList(b.redis, cfg.Revocation.RedisPrefix),
		rateLimiter: rate.New(b.redis, rate.Config{
			EnableIPThrottle:        cfg.Security.EnableIPThrottle,
			EnableReissueThrottle:   cfg.Security.EnableReissueThrottle,
			MaxLoginAttempts:        cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration:   cfg.Security.LoginCooldownDuration,
			MaxReissueAttempts:      cfg.Security.MaxReissueAttempts,
			ReissueCooldownDuration: cfg.Security.ReissueCooldownDuration,
		}),
		directory: b.directory,
		identity:  b.identity,
		logger:    logger,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink, logger),
		metrics:   NewMetrics(cfg.Metrics),
	}
	engine.initFlowDeps()

	logger.Debug("tokenAuth: engine built",
		"cipher", string(cipher.Algorithm()),
		"access_ttl", cfg.JWT.AccessTTL,
		"refresh_ttl", cfg.JWT.RefreshTTL,
		"rotate_refresh", cfg.Session.RotateRefreshOnReissue,
	)

	b.built = true

	return engine, nil
}
