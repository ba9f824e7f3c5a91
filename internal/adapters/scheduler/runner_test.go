package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onco-dash/citewatch/internal/domain/model"
	"github.com/onco-dash/citewatch/internal/observability/statsd"
)

type jobFunc func(ctx context.Context, trigger model.RunTrigger) (model.RunSummary, error)

func (f jobFunc) Run(ctx context.Context, trigger model.RunTrigger) (model.RunSummary, error) {
	return f(ctx, trigger)
}

type countingJob struct {
	mu       sync.Mutex
	triggers []model.RunTrigger
	err      error
	calls    chan struct{}
}

func newCountingJob(err error) *countingJob {
	return &countingJob{err: err, calls: make(chan struct{}, 16)}
}

func (j *countingJob) Run(_ context.Context, trigger model.RunTrigger) (model.RunSummary, error) {
	j.mu.Lock()
	j.triggers = append(j.triggers, trigger)
	j.mu.Unlock()
	select {
	case j.calls <- struct{}{}:
	default:
	}
	if j.err != nil {
		return model.RunSummary{}, j.err
	}
	return model.RunSummary{Checked: 3, MarkedStale: 1}, nil
}

func waitCalls(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for range n {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d runs", n)
		}
	}
}

func TestNewRunner_RequiresJob(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
}

func TestRunner_RunOnStart(t *testing.T) {
	job := newCountingJob(nil)
	rec := &statsd.Recorder{}
	r, err := NewRunner(RunnerOptions{Job: job, Interval: time.Hour, RunOnStart: true, Metrics: rec})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitCalls(t, job.calls, 1)
	cancel()
	require.NoError(t, <-done)

	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Equal(t, []model.RunTrigger{model.RunTriggerScheduler}, job.triggers)

	ticks := rec.Named("scheduler.tick")
	require.Len(t, ticks, 1)
	assert.Equal(t, "success", ticks[0].Tags["result"])
}

func TestRunner_TicksAndSurvivesErrors(t *testing.T) {
	job := newCountingJob(errors.New("evidence query failed: boom"))
	rec := &statsd.Recorder{}
	r, err := NewRunner(RunnerOptions{Job: job, Interval: 10 * time.Millisecond, Metrics: rec})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitCalls(t, job.calls, 2)
	cancel()
	require.NoError(t, <-done)

	ticks := rec.Named("scheduler.tick")
	require.GreaterOrEqual(t, len(ticks), 2)
	assert.Equal(t, "error", ticks[0].Tags["result"])
}

func TestRunner_LockHeldIsNoop(t *testing.T) {
	rec := &statsd.Recorder{}
	called := make(chan struct{}, 1)
	job := jobFunc(func(context.Context, model.RunTrigger) (model.RunSummary, error) {
		select {
		case called <- struct{}{}:
		default:
		}
		return model.RunSummary{}, model.ErrRunInProgress
	})
	r, err := NewRunner(RunnerOptions{Job: job, Interval: time.Hour, RunOnStart: true, Metrics: rec})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitCalls(t, called, 1)
	cancel()
	require.NoError(t, <-done)

	ticks := rec.Named("scheduler.tick")
	require.Len(t, ticks, 1)
	assert.Equal(t, "noop", ticks[0].Tags["result"])
	assert.NotContains(t, ticks[0].Tags, "error_class")
}

func TestRunner_DeadlineExceededReturnsError(t *testing.T) {
	r, err := NewRunner(RunnerOptions{Job: newCountingJob(nil), Interval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, r.Run(ctx), context.DeadlineExceeded)
}
