package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Kind distinguishes the two notices a freshness run can emit.
type Kind string

const (
	// KindRunFailure is sent when a run aborts (evidence query failure).
	KindRunFailure Kind = "run_failure"
	// KindStaleCitations is sent when a run marks at least one citation stale.
	KindStaleCitations Kind = "stale_citations"
)

// RunNoticePayload captures the canonical data we emit for run notifications.
type RunNoticePayload struct {
	Kind        Kind
	RunID       string
	Trigger     string
	Checked     int
	MarkedStale int
	// StaleHashes lists the unique hashes newly persisted as stale, in processing order.
	StaleHashes []string
	Error       string
	ErrorClass  string
	Severity    string
	OccurredAt  time.Time
	Metadata    map[string]string
}

// Sink describes a destination capable of consuming run notifications.
type Sink interface {
	SendRunNotice(ctx context.Context, payload RunNoticePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload RunNoticePayload) error

// SendRunNotice implements the Sink interface.
func (f SinkFunc) SendRunNotice(ctx context.Context, payload RunNoticePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
