package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/claimcrypt"
)

type serverConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
	LogJSON         bool

	RedisAddrs    []string
	RedisPassword string
	RedisDB       int

	DirectoryURL     string
	DirectoryTimeout time.Duration

	// Social sign-in is mounted only when SocialIssuer is set.
	SocialIssuer          string
	SocialUserInfoURL     string
	SocialAllowUnverified bool
	SocialTimeout         time.Duration

	InsecureCookies   bool
	TrustProxyHeaders bool
	MetricsPath       string
	CORSOrigins       []string

	Engine tokenAuth.Config
	// Secrets holds key material found in the config file. Environment and
	// .env values are resolved separately by tokenAuth.LoadKeys.
	Secrets map[string]string
}

// loadConfig layers defaults, an optional config file and TOKENAUTH_* env vars.
func loadConfig(configFile string) (*serverConfig, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("TOKENAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := tokenAuth.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.insecure_cookies", false)
	v.SetDefault("server.trust_proxy_headers", false)
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetDefault("redis.addrs", []string{"localhost:6379"})
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("directory.url", "")
	v.SetDefault("directory.timeout", 5*time.Second)
	v.SetDefault("social.issuer", "")
	v.SetDefault("social.userinfo_url", "")
	v.SetDefault("social.allow_unverified_email", false)
	v.SetDefault("social.timeout", 5*time.Second)

	v.SetDefault("jwt.access_ttl", def.JWT.AccessTTL)
	v.SetDefault("jwt.refresh_ttl", def.JWT.RefreshTTL)
	v.SetDefault("jwt.issuer", def.JWT.Issuer)
	v.SetDefault("jwt.leeway", def.JWT.Leeway)
	v.SetDefault("jwt.reissue_leeway", def.JWT.ReissueLeeway)
	v.SetDefault("cipher.algorithm", string(def.Cipher.Algorithm))
	v.SetDefault("session.rotate_refresh", def.Session.RotateRefreshOnReissue)
	v.SetDefault("revocation.revoke_refresh_on_sign_out", def.Revocation.RevokeRefreshOnSignOut)
	v.SetDefault("security.production", true)
	v.SetDefault("security.ip_throttle", true)
	v.SetDefault("security.max_login_attempts", def.Security.MaxLoginAttempts)
	v.SetDefault("security.login_cooldown", def.Security.LoginCooldownDuration)
	v.SetDefault("security.store_timeout", 2*time.Second)
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.buffer_size", def.Audit.BufferSize)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.latency_histograms", true)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	engineCfg := def
	engineCfg.JWT.AccessTTL = v.GetDuration("jwt.access_ttl")
	engineCfg.JWT.RefreshTTL = v.GetDuration("jwt.refresh_ttl")
	engineCfg.JWT.Issuer = v.GetString("jwt.issuer")
	engineCfg.JWT.Leeway = v.GetDuration("jwt.leeway")
	engineCfg.JWT.ReissueLeeway = v.GetDuration("jwt.reissue_leeway")
	engineCfg.Cipher.Algorithm = claimcrypt.Algorithm(v.GetString("cipher.algorithm"))
	engineCfg.Session.RotateRefreshOnReissue = v.GetBool("session.rotate_refresh")
	engineCfg.Revocation.RevokeRefreshOnSignOut = v.GetBool("revocation.revoke_refresh_on_sign_out")
	engineCfg.Security.ProductionMode = v.GetBool("security.production")
	engineCfg.Security.EnableIPThrottle = v.GetBool("security.ip_throttle")
	engineCfg.Security.MaxLoginAttempts = v.GetInt("security.max_login_attempts")
	engineCfg.Security.LoginCooldownDuration = v.GetDuration("security.login_cooldown")
	engineCfg.Security.StoreTimeout = v.GetDuration("security.store_timeout")
	engineCfg.Audit.Enabled = v.GetBool("audit.enabled")
	engineCfg.Audit.BufferSize = v.GetInt("audit.buffer_size")
	engineCfg.Metrics.Enabled = v.GetBool("metrics.enabled")
	engineCfg.Metrics.EnableLatencyHistograms = v.GetBool("metrics.latency_histograms")

	if err := engineCfg.Validate(); err != nil {
		return nil, err
	}

	cfg := &serverConfig{
		Addr:                  v.GetString("server.addr"),
		ShutdownTimeout:       v.GetDuration("server.shutdown_timeout"),
		LogLevel:              level,
		LogJSON:               v.GetBool("log.json"),
		RedisAddrs:            v.GetStringSlice("redis.addrs"),
		RedisPassword:         v.GetString("redis.password"),
		RedisDB:               v.GetInt("redis.db"),
		DirectoryURL:          v.GetString("directory.url"),
		DirectoryTimeout:      v.GetDuration("directory.timeout"),
		SocialIssuer:          v.GetString("social.issuer"),
		SocialUserInfoURL:     v.GetString("social.userinfo_url"),
		SocialAllowUnverified: v.GetBool("social.allow_unverified_email"),
		SocialTimeout:         v.GetDuration("social.timeout"),
		InsecureCookies:       v.GetBool("server.insecure_cookies"),
		TrustProxyHeaders:     v.GetBool("server.trust_proxy_headers"),
		MetricsPath:           v.GetString("server.metrics_path"),
		CORSOrigins:           v.GetStringSlice("server.cors_origins"),
		Engine:                engineCfg,
		Secrets: map[string]string{
			tokenAuth.SigningKeyName: v.GetString("secrets.jwt_secret"),
			tokenAuth.CipherKeyName:  v.GetString("secrets.aes_secret"),
		},
	}
	if len(cfg.RedisAddrs) == 0 {
		return nil, fmt.Errorf("%w: redis.addrs is empty", tokenAuth.ErrConfiguration)
	}
	return cfg, nil
}

func newLogger(cfg *serverConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
