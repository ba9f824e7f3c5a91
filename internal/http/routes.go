package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Runner FreshnessRunner
	Query  FreshnessQuery
	// TriggerAuth guards the trigger and read APIs. Nil admits every caller.
	TriggerAuth *TriggerAuth
	// HealthChecks are run by /healthz (optional).
	HealthChecks map[string]HealthCheck
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	h := &FreshnessHandlers{Runner: services.Runner, Query: services.Query, Logger: logger}
	registerFreshnessRoutes(mux, h, RequireTrigger(services.TriggerAuth, logger))

	health := &healthHandler{checks: services.HealthChecks, logger: logger}
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	return Recover(logger)(Logging(logger)(mux))
}

func registerFreshnessRoutes(mux *http.ServeMux, h *FreshnessHandlers, guard func(http.Handler) http.Handler) {
	if h.Runner != nil {
		mux.Handle("POST /api/freshness/run", guard(http.HandlerFunc(h.Run)))
	}
	if h.Query != nil {
		mux.Handle("GET /api/freshness/status/{hash}", guard(http.HandlerFunc(h.Status)))
		mux.Handle("GET /api/freshness/stale", guard(http.HandlerFunc(h.Stale)))
		mux.Handle("GET /api/freshness/runs", guard(http.HandlerFunc(h.Runs)))
	}
}
