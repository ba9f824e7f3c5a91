package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type healthHandler struct {
	checks map[string]HealthCheck
	logger *slog.Logger
}

type healthResponse struct {
	Status string            `json:"status"`
	Failed map[string]string `json:"failed,omitempty"`
}

// ServeHTTP returns 200 {"status":"ok"} when every check passes and 503 otherwise.
// HEAD responses carry the status code only.
func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				if resp.Failed == nil {
					resp.Failed = map[string]string{}
				}
				resp.Failed[name] = err.Error()
			}
		}
	}

	code := http.StatusOK
	if len(resp.Failed) > 0 {
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
		if h.logger != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "failed", resp.Failed)
		}
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		return
	}
	WriteJSON(w, code, resp)
}
