package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server (trigger and read APIs).
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeScheduler runs the in-process freshness scheduler.
	ServiceModeScheduler ServiceMode = "scheduler"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeScheduler,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeScheduler:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, scheduler)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// SchedulerConfig contains scheduler service configuration.
type SchedulerConfig struct {
	// Interval is the time between freshness runs.
	Interval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"24h"`

	// RunOnStart triggers a run immediately after startup instead of waiting one interval.
	RunOnStart bool `env:"SCHEDULER_RUN_ON_START" envDefault:"false"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	if s.Interval < time.Minute {
		s.Interval = time.Minute
	}
}
