package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onco-dash/citewatch/config"
	"github.com/onco-dash/citewatch/internal/adapters/oidc"
	httpx "github.com/onco-dash/citewatch/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(ctx context.Context, cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, nil //nolint:nilnil // nothing to start
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	auth, err := buildTriggerAuth(ctx, appCfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Runner:       cfg.Services.Freshness,
		Query:        cfg.Services.Query,
		TriggerAuth:  auth,
		HealthChecks: buildHealthChecks(cfg.DB, cfg.RedisClient),
		Logger:       logger,
	})

	// Start server (logs "starting HTTP server" internally)
	return startServer(logger, handler, appCfg.HTTP), nil
}

// buildTriggerAuth resolves the configured trigger auth mode. OIDC discovery runs once at startup.
func buildTriggerAuth(ctx context.Context, cfg config.TriggerAuthConfig, logger *slog.Logger) (*httpx.TriggerAuth, error) {
	var verifier httpx.IDTokenVerifier
	if cfg.Mode == config.TriggerAuthOIDC {
		v, err := oidc.NewVerifier(ctx, oidc.VerifierConfig{
			IssuerURL:     cfg.OIDC.IssuerURL,
			Audience:      cfg.OIDC.Audience,
			AllowedEmails: cfg.OIDC.AllowedEmails,
		})
		if err != nil {
			return nil, fmt.Errorf("trigger oidc verifier: %w", err)
		}
		verifier = v
	}

	auth, err := httpx.NewTriggerAuth(cfg, verifier)
	if err != nil {
		return nil, fmt.Errorf("trigger auth: %w", err)
	}
	if cfg.Mode == config.TriggerAuthNone || cfg.Mode == "" {
		logger.Warn("trigger auth disabled; every caller may start freshness runs")
	} else {
		logger.Info("trigger auth enabled", "mode", cfg.Mode)
	}
	return auth, nil
}

func buildHealthChecks(db *sql.DB, rdb redis.UniversalClient) map[string]httpx.HealthCheck {
	checks := make(map[string]httpx.HealthCheck, 2)
	if db != nil {
		checks["database"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

func startServer(logger *slog.Logger, handler http.Handler, cfg config.HTTPConfig) *http.Server {
	addr := cfg.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
