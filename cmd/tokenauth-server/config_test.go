package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/claimcrypt"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"localhost:6379"}, cfg.RedisAddrs)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	assert.Empty(t, cfg.CORSOrigins)
	assert.True(t, cfg.Engine.Security.ProductionMode)
	assert.True(t, cfg.Engine.Metrics.Enabled)
	assert.Equal(t, time.Hour, cfg.Engine.JWT.AccessTTL)
	assert.Equal(t, 2*time.Second, cfg.Engine.Security.StoreTimeout)
	assert.Empty(t, cfg.Secrets[tokenAuth.SigningKeyName])
	assert.Empty(t, cfg.SocialIssuer)
	assert.Equal(t, 5*time.Second, cfg.SocialTimeout)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  cors_origins: ["https://app.example.com"]
redis:
  addrs: ["redis-a:6379", "redis-b:6379"]
jwt:
  access_ttl: 15m
cipher:
  algorithm: chacha20-poly1305
session:
  rotate_refresh: true
log:
  level: debug
social:
  issuer: https://accounts.google.com
  userinfo_url: https://www.googleapis.com/oauth2/v3/userinfo
  allow_unverified_email: true
secrets:
  jwt_secret: from-file
`)
	t.Setenv("TOKENAUTH_SERVER_ADDR", ":7070")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr, "environment wins over the file")
	assert.Equal(t, []string{"redis-a:6379", "redis-b:6379"}, cfg.RedisAddrs)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.Engine.JWT.AccessTTL)
	assert.Equal(t, claimcrypt.ChaCha20Poly1305, cfg.Engine.Cipher.Algorithm)
	assert.True(t, cfg.Engine.Session.RotateRefreshOnReissue)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "from-file", cfg.Secrets[tokenAuth.SigningKeyName])
	assert.Equal(t, "https://accounts.google.com", cfg.SocialIssuer)
	assert.Equal(t, "https://www.googleapis.com/oauth2/v3/userinfo", cfg.SocialUserInfoURL)
	assert.True(t, cfg.SocialAllowUnverified)
}

func TestLoadConfigRejectsInvalidEngineConfig(t *testing.T) {
	path := writeConfig(t, `
jwt:
  access_ttl: 2h
`)
	_, err := loadConfig(path)
	require.ErrorIs(t, err, tokenAuth.ErrConfiguration)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("TOKENAUTH_LOG_LEVEL", "loud")
	_, err = loadConfig("")
	assert.ErrorContains(t, err, "log.level")
}

func TestNewDirectoryRequiresURLInProduction(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	_, err = newDirectory(cfg, slog.Default())
	require.ErrorIs(t, err, tokenAuth.ErrConfiguration)

	cfg.DirectoryURL = "http://users.internal:8080"
	dir, err := newDirectory(cfg, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, dir)
}

func TestNewIdentityVerifier(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	v, err := newIdentityVerifier(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, v, "social sign-in stays off without an issuer")

	// An explicit userinfo endpoint needs no discovery round trip.
	cfg.SocialIssuer = "https://accounts.google.com"
	cfg.SocialUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	v, err = newIdentityVerifier(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, v)
}
