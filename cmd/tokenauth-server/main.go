// Command tokenauth-server exposes the token engine over HTTP.
//
// Configuration comes from an optional file (-config), a .env file and
// TOKENAUTH_* environment variables, in increasing precedence. Secrets are
// looked up as JWT_SECRET and AES_SECRET in .env, then the config file's
// secrets section, then the process environment.
//
// When directory.url is empty an in-memory directory is used, which is only
// suitable for local development. Setting social.issuer enables the social
// sign-in routes against that OpenID provider.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/directory"
	"github.com/MrEthical07/tokenAuth/httpapi"
	promexport "github.com/MrEthical07/tokenAuth/metrics/export/prometheus"
	"github.com/MrEthical07/tokenAuth/password"
	"github.com/MrEthical07/tokenAuth/social"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML, JSON or TOML config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "tokenauth-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	keys, err := tokenAuth.LoadKeys(
		tokenAuth.FromDotenv(),
		tokenAuth.FromValue(cfg.Secrets),
		tokenAuth.FromEnv(),
	)
	if err != nil {
		return err
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.RedisAddrs,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	dir, err := newDirectory(cfg, logger)
	if err != nil {
		return err
	}

	builder := tokenAuth.New()
	verifier, err := newIdentityVerifier(context.Background(), cfg)
	if err != nil {
		return err
	}
	if verifier != nil {
		builder = builder.WithIdentityVerifier(verifier)
		logger.Info("social sign-in enabled", "issuer", cfg.SocialIssuer)
	}

	engine, err := builder.
		WithConfig(cfg.Engine).
		WithKeys(keys).
		WithRedis(rdb).
		WithDirectory(dir).
		WithLogger(logger).
		WithAuditSink(tokenAuth.NewSlogSink(logger.With("component", "audit"))).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	rtt, err := engine.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("redis unreachable at startup: %w", err)
	}
	logger.Info("redis connected", "addrs", cfg.RedisAddrs, "rtt", rtt)

	router := httpapi.NewRouter(engine, httpapi.Options{
		InsecureCookies:   cfg.InsecureCookies,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Logger:            logger,
	})
	if cfg.Engine.Metrics.Enabled && cfg.MetricsPath != "" {
		router.Handle(cfg.MetricsPath, promexport.NewExporter(engine).Handler()).Methods(http.MethodGet)
	}

	var handler http.Handler = router
	if len(cfg.CORSOrigins) > 0 {
		// Credentials stay on: the access token travels in a cookie.
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}).Handler(router)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newDirectory(cfg *serverConfig, logger *slog.Logger) (tokenAuth.UserDirectory, error) {
	if cfg.DirectoryURL != "" {
		return directory.New(directory.Config{
			BaseURL: cfg.DirectoryURL,
			Timeout: cfg.DirectoryTimeout,
		})
	}
	if cfg.Engine.Security.ProductionMode {
		return nil, fmt.Errorf("%w: directory.url is required in production mode", tokenAuth.ErrConfiguration)
	}
	logger.Warn("directory.url not set, using in-memory directory")
	return directory.NewMemory(password.DefaultConfig())
}

// newIdentityVerifier returns nil when social sign-in is not configured.
func newIdentityVerifier(ctx context.Context, cfg *serverConfig) (tokenAuth.IdentityVerifier, error) {
	if cfg.SocialIssuer == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.SocialTimeout)
	defer cancel()

	v, err := social.New(ctx, social.Config{
		Issuer:               cfg.SocialIssuer,
		UserInfoURL:          cfg.SocialUserInfoURL,
		AllowUnverifiedEmail: cfg.SocialAllowUnverified,
		Timeout:              cfg.SocialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
