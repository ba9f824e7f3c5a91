package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/onco-dash/citewatch/internal/observability/notify"
)

type capture struct {
	mu       sync.Mutex
	received []notify.RunNoticePayload
}

func (c *capture) sink() notify.Sink {
	return notify.SinkFunc(func(_ context.Context, payload notify.RunNoticePayload) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.received = append(c.received, payload)
		return nil
	})
}

func TestServiceNotifyRunFailureDefaultsSeverity(t *testing.T) {
	c := &capture{}
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "capture", Sink: c.sink()}}})

	svc.NotifyRun(context.Background(), notify.RunNoticePayload{Kind: notify.KindRunFailure, RunID: "r1"})

	if len(c.received) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(c.received))
	}
	if c.received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected severity critical, got %s", c.received[0].Severity)
	}
}

func TestServiceNotifyStale(t *testing.T) {
	c := &capture{}
	svc := NewService(Options{Sinks: []SinkRegistration{{Sink: c.sink()}, {Name: "nil"}}})

	svc.NotifyRun(context.Background(), notify.RunNoticePayload{Kind: notify.KindStaleCitations, MarkedStale: 2})

	if len(c.received) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(c.received))
	}
	if c.received[0].Severity != notify.SeverityWarning {
		t.Fatalf("expected severity warning, got %s", c.received[0].Severity)
	}
}

func TestServiceSkipsStaleNotices(t *testing.T) {
	tests := []struct {
		name      string
		skipStale bool
		stale     int
	}{
		{name: "disabled", skipStale: true, stale: 3},
		{name: "nothing stale", stale: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capture{}
			svc := NewService(Options{SkipStale: tt.skipStale, Sinks: []SinkRegistration{{Sink: c.sink()}}})

			svc.NotifyRun(context.Background(), notify.RunNoticePayload{Kind: notify.KindStaleCitations, MarkedStale: tt.stale})

			if len(c.received) != 0 {
				t.Fatalf("expected no notices, got %d", len(c.received))
			}
		})
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
	var nilSvc *Service
	nilSvc.NotifyRun(context.Background(), notify.RunNoticePayload{})
}

func TestServiceLogsErrors(t *testing.T) {
	// Ensure we don't panic when sink returns an error.
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "fail",
				Sink: notify.SinkFunc(func(context.Context, notify.RunNoticePayload) error {
					return errors.New("boom")
				}),
			},
		},
	})

	svc.NotifyRun(context.Background(), notify.RunNoticePayload{Kind: notify.KindRunFailure})
}
