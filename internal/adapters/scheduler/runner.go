// Package scheduler provides the in-process tick loop that triggers freshness runs.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onco-dash/citewatch/internal/domain/model"
	obserrors "github.com/onco-dash/citewatch/internal/observability/errors"
	"github.com/onco-dash/citewatch/internal/observability/metrics"
	"github.com/onco-dash/citewatch/internal/observability/statsd"
)

// FreshnessJob runs one freshness pass.
type FreshnessJob interface {
	Run(ctx context.Context, trigger model.RunTrigger) (model.RunSummary, error)
}

// Runner triggers a FreshnessJob at a fixed interval.
type Runner struct {
	job        FreshnessJob
	interval   time.Duration
	runOnStart bool
	logger     *slog.Logger
	metrics    statsd.Sink
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Job        FreshnessJob
	Interval   time.Duration
	RunOnStart bool
	Logger     *slog.Logger
	Metrics    statsd.Sink
}

// NewRunner creates a new scheduler runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Job == nil {
		return nil, errors.New("freshness job is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		job:        opts.Job,
		interval:   opts.Interval,
		runOnStart: opts.RunOnStart,
		logger:     logger.With("component", "scheduler"),
		metrics:    opts.Metrics,
	}, nil
}

// Run starts the tick loop and runs until the context is cancelled.
// Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting scheduler runner", "interval", r.interval, "run_on_start", r.runOnStart)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if r.runOnStart {
		r.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "scheduler runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	summary, err := r.job.Run(ctx, model.RunTriggerScheduler)
	elapsed := time.Since(start)

	skipped := errors.Is(err, model.ErrRunInProgress)
	r.emitTickMetrics(summary, elapsed, err, skipped)

	switch {
	case skipped:
		r.logger.InfoContext(ctx, "scheduled run skipped, another run holds the lock")
	case err != nil:
		// Keep ticking; the next interval retries.
		r.logger.ErrorContext(ctx, "scheduled freshness run failed", "error", err, "duration", elapsed)
	default:
		r.logger.InfoContext(ctx, "scheduled freshness run finished",
			"checked", summary.Checked,
			"marked_stale", summary.MarkedStale,
			"duration", elapsed,
		)
	}
}

func (r *Runner) emitTickMetrics(summary model.RunSummary, elapsed time.Duration, err error, skipped bool) {
	if r.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	switch {
	case skipped:
		result = metrics.ResultNoop
	case err != nil:
		result = metrics.ResultError
	case summary.Checked == 0:
		result = metrics.ResultNoop
	}

	tags := map[string]string{"result": result}
	if err != nil && !skipped {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	r.metrics.Count("scheduler.tick", 1, tags)
	if elapsed > 0 {
		r.metrics.Timing("scheduler.tick_duration", elapsed, metrics.CloneTags(tags))
	}
}
