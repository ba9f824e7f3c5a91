package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// WriteTimeout bounds a single response, including a synchronous freshness run.
	// It should exceed FRESHNESS_RUN_TIMEOUT or the trigger response is cut off.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"11m"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.WriteTimeout < 30*time.Second {
		h.WriteTimeout = 30 * time.Second
	}
}
