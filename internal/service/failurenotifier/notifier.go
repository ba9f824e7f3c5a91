package failurenotifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/onco-dash/citewatch/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// SkipStale suppresses stale-citation notices; run failures are always sent.
	SkipStale bool
}

// Service dispatches run notices to all registered sinks.
type Service struct {
	logger    *slog.Logger
	sinks     []SinkRegistration
	skipStale bool
}

// NewService constructs a notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger:    logger.With("component", "failure_notifier"),
		sinks:     sinks,
		skipStale: opts.SkipStale,
	}
}

// NotifyRun fans the payload out to all sinks and waits for delivery.
func (s *Service) NotifyRun(ctx context.Context, payload notify.RunNoticePayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}

	if payload.Kind == notify.KindStaleCitations && (s.skipStale || payload.MarkedStale == 0) {
		s.logger.DebugContext(ctx, "skipping stale notice",
			"run_id", payload.RunID,
			"marked_stale", payload.MarkedStale,
		)
		return
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityWarning
		if payload.Kind == notify.KindRunFailure {
			payload.Severity = notify.SeverityCritical
		}
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendRunNotice(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "notifier delivery error",
					"sink", entry.Name,
					"kind", payload.Kind,
					"run_id", payload.RunID,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
