package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onco-dash/citewatch/config"
	"github.com/onco-dash/citewatch/internal/core"
	"github.com/onco-dash/citewatch/internal/domain/freshness"
	"github.com/onco-dash/citewatch/internal/domain/model"
	obserrors "github.com/onco-dash/citewatch/internal/observability/errors"
	"github.com/onco-dash/citewatch/internal/observability/metrics"
	"github.com/onco-dash/citewatch/internal/observability/notify"
	"github.com/onco-dash/citewatch/internal/observability/statsd"
)

// ErrEvidenceQuery wraps failures to read the evidence page. It aborts the run.
var ErrEvidenceQuery = errors.New("evidence query failed")

// errRunDeadline is recorded on runs that skipped records after FRESHNESS_RUN_TIMEOUT.
var errRunDeadline = errors.New("run deadline exceeded")

const defaultRetryBackoff = 200 * time.Millisecond

// RunNotifier receives run failure and stale-citation notices.
type RunNotifier interface {
	NotifyRun(ctx context.Context, payload notify.RunNoticePayload)
}

// FreshnessServiceOptions groups dependencies for FreshnessService.
type FreshnessServiceOptions struct {
	Evidence core.EvidenceRepository        // Required
	Statuses core.FreshnessStatusRepository // Required
	Prober   core.Prober                    // Required
	Runs     core.FreshnessRunRepository    // Optional: run history and cursoring
	Lock     *core.RunLock                  // Optional: cross-replica overlap guard
	Notifier RunNotifier                    // Optional
	Config   config.FreshnessConfig
	Clock    core.TimeProvider // Optional: defaults to wall clock
	Logger   *slog.Logger      // Optional
	Metrics  statsd.Sink       // Optional

	// RetryBackoff is the base delay between upsert attempts (attempt × base).
	RetryBackoff time.Duration
}

// FreshnessService runs one pass of the citation freshness check:
// read a page of evidence, probe each first citation, evaluate, upsert.
type FreshnessService struct {
	evidence     core.EvidenceRepository
	statuses     core.FreshnessStatusRepository
	prober       core.Prober
	runs         core.FreshnessRunRepository
	lock         *core.RunLock
	notifier     RunNotifier
	cfg          config.FreshnessConfig
	clock        core.TimeProvider
	logger       *slog.Logger
	metrics      statsd.Sink
	retryBackoff time.Duration
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewFreshnessService constructs a FreshnessService.
func NewFreshnessService(opts FreshnessServiceOptions) (*FreshnessService, error) {
	if opts.Evidence == nil {
		return nil, errors.New("EvidenceRepository is required")
	}
	if opts.Statuses == nil {
		return nil, errors.New("FreshnessStatusRepository is required")
	}
	if opts.Prober == nil {
		return nil, errors.New("prober is required")
	}

	cfg := opts.Config
	cfg.Sanitize()

	clock := opts.Clock
	if clock == nil {
		clock = wallClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	return &FreshnessService{
		evidence:     opts.Evidence,
		statuses:     opts.Statuses,
		prober:       opts.Prober,
		runs:         opts.Runs,
		lock:         opts.Lock,
		notifier:     opts.Notifier,
		cfg:          cfg,
		clock:        clock,
		logger:       logger.With("component", "freshness_service"),
		metrics:      opts.Metrics,
		retryBackoff: backoff,
	}, nil
}

// runTally accumulates per-record outcomes; guarded by mu in parallel mode.
type runTally struct {
	mu            sync.Mutex
	checked       int
	markedStale   int
	skipped       int
	probeFailures int
	writeFailures int
	// expired counts records left unprocessed because the run deadline passed.
	expired     int
	staleHashes []string
}

func (t *runTally) add(fn func(*runTally)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t)
}

// Run performs one pass and returns {checked, markedStale}.
// It returns model.ErrRunInProgress when another run holds the lock and an error
// wrapping ErrEvidenceQuery when the evidence page cannot be read.
// Runs that hit the run deadline return the partial summary with a nil error.
func (s *FreshnessService) Run(ctx context.Context, trigger model.RunTrigger) (model.RunSummary, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return model.RunSummary{}, err
	}
	defer release()

	started := s.clock.Now()
	deadline := started.Add(s.cfg.RunTimeout)
	run := s.startRun(ctx, trigger, started)
	logger := s.logger.With("trigger", trigger)
	if run != nil {
		logger = logger.With("run_id", run.ID)
	}

	cursor := s.resolveCursor(ctx, logger)
	records, err := s.evidence.ListPage(ctx, model.EvidenceListOptions{Limit: s.cfg.PageSize, After: cursor})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEvidenceQuery, err)
		logger.ErrorContext(ctx, "freshness run aborted", "error", err)
		s.finish(ctx, trigger, run, started, &runTally{}, s.carriedCursor(cursor), err)
		return model.RunSummary{}, err
	}

	tally := &runTally{}
	done := make([]bool, len(records))
	if s.cfg.Concurrency > 1 {
		s.processParallel(ctx, logger, records, deadline, tally, done)
	} else {
		s.processSequential(ctx, logger, records, deadline, tally, done)
	}

	var runErr error
	if tally.expired > 0 {
		runErr = errRunDeadline
		if ctx.Err() != nil {
			runErr = fmt.Errorf("run interrupted: %w", ctx.Err())
		}
	}

	s.finish(ctx, trigger, run, started, tally, s.nextCursor(cursor, records, done), runErr)
	logger.InfoContext(ctx, "freshness run complete",
		"records", len(records),
		"checked", tally.checked,
		"marked_stale", tally.markedStale,
		"skipped", tally.skipped,
		"probe_failures", tally.probeFailures,
		"write_failures", tally.writeFailures,
		"partial", runErr != nil,
	)

	return model.RunSummary{Checked: tally.checked, MarkedStale: tally.markedStale}, nil
}

func (s *FreshnessService) acquire(ctx context.Context) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}
	token, ok, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, model.ErrRunInProgress
	}
	return func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), token); err != nil {
			s.logger.WarnContext(ctx, "failed to release run lock", "key", s.lock.Key(), "error", err)
		}
	}, nil
}

func (s *FreshnessService) startRun(ctx context.Context, trigger model.RunTrigger, started time.Time) *model.FreshnessRun {
	if s.runs == nil {
		return nil
	}
	run, err := s.runs.Start(ctx, trigger, started)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record run start", "trigger", trigger, "error", err)
		return nil
	}
	return run
}

func (s *FreshnessService) resolveCursor(ctx context.Context, logger *slog.Logger) string {
	if !s.cfg.CursorEnabled || s.runs == nil {
		return ""
	}
	cursor, err := s.runs.LastCursor(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to load run cursor, starting from the beginning", "error", err)
		return ""
	}
	return cursor
}

// nextCursor returns where the following run resumes. A run cut short resumes after
// the last record of its processed prefix; a complete full page resumes after its
// last record; a complete short page wraps to the start (nil).
func (s *FreshnessService) nextCursor(prev string, records []model.EvidenceRecord, done []bool) *string {
	if !s.cfg.CursorEnabled {
		return nil
	}
	processed := len(records)
	for i, ok := range done {
		if !ok {
			processed = i
			break
		}
	}
	switch {
	case processed == 0 && len(records) > 0:
		return s.carriedCursor(prev)
	case processed < len(records):
		last := records[processed-1].UniqueHash
		return &last
	case len(records) < s.cfg.PageSize || len(records) == 0:
		return nil
	default:
		last := records[len(records)-1].UniqueHash
		return &last
	}
}

// carriedCursor keeps the previous position for runs that made no progress.
func (s *FreshnessService) carriedCursor(prev string) *string {
	if !s.cfg.CursorEnabled || prev == "" {
		return nil
	}
	return &prev
}

func (s *FreshnessService) expired(ctx context.Context, deadline time.Time) bool {
	return ctx.Err() != nil || s.clock.Now().After(deadline)
}

func (s *FreshnessService) processSequential(
	ctx context.Context,
	logger *slog.Logger,
	records []model.EvidenceRecord,
	deadline time.Time,
	tally *runTally,
	done []bool,
) {
	for i, rec := range records {
		if s.expired(ctx, deadline) {
			logger.WarnContext(ctx, "run deadline reached, skipping remaining records", "remaining", len(records)-i)
			tally.add(func(t *runTally) {
				t.skipped += len(records) - i
				t.expired += len(records) - i
			})
			return
		}
		s.processRecord(ctx, logger, rec, tally)
		done[i] = true
	}
}

func (s *FreshnessService) processParallel(
	ctx context.Context,
	logger *slog.Logger,
	records []model.EvidenceRecord,
	deadline time.Time,
	tally *runTally,
	done []bool,
) {
	var domains sync.Map
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	skipExpired := func() {
		tally.add(func(t *runTally) {
			t.skipped++
			t.expired++
		})
	}

	for i, rec := range records {
		g.Go(func() error {
			if s.expired(ctx, deadline) {
				skipExpired()
				return nil
			}
			if url, ok := rec.FirstCitationURL(); ok {
				mu, _ := domains.LoadOrStore(freshness.SourceDomain(url), &sync.Mutex{})
				mu.(*sync.Mutex).Lock()
				defer mu.(*sync.Mutex).Unlock()
				// The wait for a busy domain can outlast the run.
				if s.expired(ctx, deadline) {
					skipExpired()
					return nil
				}
			}
			s.processRecord(ctx, logger, rec, tally)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()
}

func (s *FreshnessService) processRecord(ctx context.Context, logger *slog.Logger, rec model.EvidenceRecord, tally *runTally) {
	url, ok := rec.FirstCitationURL()
	if !ok {
		tally.add(func(t *runTally) { t.skipped++ })
		return
	}

	prev, err := s.statuses.GetByHash(ctx, rec.UniqueHash)
	switch {
	case errors.Is(err, model.ErrFreshnessStatusNotFound):
		prev = nil
	case err != nil:
		logger.ErrorContext(ctx, "failed to read previous status", "unique_hash", rec.UniqueHash, "error", err)
		tally.add(func(t *runTally) { t.writeFailures++ })
		return
	}

	probe := s.prober.Probe(ctx, url)
	decision := freshness.Evaluate(prev, probe)
	req := freshness.Snapshot(rec.UniqueHash, probe, decision, s.clock.Now())

	if decision.Stale {
		logger.InfoContext(ctx, "citation marked stale",
			"unique_hash", rec.UniqueHash,
			"url", url,
			"source_domain", probe.SourceDomain,
			"reasons", decision.Reasons,
		)
	}

	writeErr := s.upsertWithRetry(ctx, &req)
	if writeErr != nil {
		logger.ErrorContext(ctx, "failed to persist freshness status",
			"unique_hash", rec.UniqueHash,
			"error", writeErr,
			"error_class", obserrors.Classify(writeErr),
		)
	}

	tally.add(func(t *runTally) {
		t.checked++
		if !probe.OK {
			t.probeFailures++
		}
		if writeErr != nil {
			t.writeFailures++
			return
		}
		if decision.Stale {
			t.markedStale++
			t.staleHashes = append(t.staleHashes, rec.UniqueHash)
		}
	})
}

func (s *FreshnessService) upsertWithRetry(ctx context.Context, req *model.UpsertFreshnessStatusRequest) error {
	attempts := s.cfg.WriteRetries + 1
	var lastErr error
	for attempt := range attempts {
		_, err := s.statuses.Upsert(ctx, req)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * s.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("upsert freshness status %s after %d attempts: %w", req.UniqueHash, attempts, lastErr)
}

func (s *FreshnessService) finish(
	ctx context.Context,
	trigger model.RunTrigger,
	run *model.FreshnessRun,
	started time.Time,
	tally *runTally,
	nextCursor *string,
	runErr error,
) {
	ctx = context.WithoutCancel(ctx)
	finished := s.clock.Now()

	var errText *string
	if runErr != nil {
		msg := runErr.Error()
		errText = &msg
	}

	runID := ""
	if run != nil {
		runID = run.ID
		_, err := s.runs.Complete(ctx, &model.CompleteFreshnessRunRequest{
			ID:            run.ID,
			FinishedAt:    finished,
			Checked:       tally.checked,
			MarkedStale:   tally.markedStale,
			Skipped:       tally.skipped,
			ProbeFailures: tally.probeFailures,
			WriteFailures: tally.writeFailures,
			Error:         errText,
			NextCursor:    nextCursor,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to record run completion", "run_id", run.ID, "error", err)
		}
	}

	aborted := errors.Is(runErr, ErrEvidenceQuery)
	metrics.EmitRun(s.metrics, metrics.RunMetric{
		Trigger:       string(trigger),
		Result:        runResult(tally, runErr, aborted),
		Checked:       tally.checked,
		MarkedStale:   tally.markedStale,
		WriteFailures: tally.writeFailures,
		Duration:      finished.Sub(started),
		Err:           runErr,
		FinishedAt:    finished,
	})

	if s.notifier == nil {
		return
	}
	payload := notify.RunNoticePayload{
		RunID:       runID,
		Trigger:     string(trigger),
		Checked:     tally.checked,
		MarkedStale: tally.markedStale,
		OccurredAt:  finished,
	}
	switch {
	case aborted:
		payload.Kind = notify.KindRunFailure
		payload.Error = runErr.Error()
		payload.ErrorClass = obserrors.Classify(runErr)
		s.notifier.NotifyRun(ctx, payload)
	case tally.markedStale > 0 && s.cfg.NotifyOnStale:
		payload.Kind = notify.KindStaleCitations
		payload.StaleHashes = tally.staleHashes
		s.notifier.NotifyRun(ctx, payload)
	}
}

func runResult(tally *runTally, runErr error, aborted bool) string {
	switch {
	case aborted:
		return metrics.ResultError
	case runErr != nil:
		return metrics.ResultPartial
	case tally.checked == 0:
		return metrics.ResultNoop
	default:
		return metrics.ResultSuccess
	}
}
