package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunTrigger identifies what started a freshness run.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type RunTrigger string

const (
	// RunTriggerHTTP is a run started through the trigger endpoint.
	RunTriggerHTTP RunTrigger = "http"
	// RunTriggerScheduler is a run started by the in-process scheduler.
	RunTriggerScheduler RunTrigger = "scheduler"
	// RunTriggerCLI is a run started by the admin CLI.
	RunTriggerCLI RunTrigger = "cli"
)

// ErrRunInProgress is returned when another run holds the run lock.
var ErrRunInProgress = errors.New("freshness run already in progress")

// Valid returns true if the RunTrigger is known.
func (t RunTrigger) Valid() bool {
	return t == RunTriggerHTTP || t == RunTriggerScheduler || t == RunTriggerCLI
}

// MarshalText implements encoding.TextMarshaler for RunTrigger.
func (t RunTrigger) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for RunTrigger.
func (t *RunTrigger) UnmarshalText(text []byte) error {
	v := RunTrigger(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid RunTrigger: %q", v)
	}
	*t = v
	return nil
}

// FreshnessRun is the history row recorded for every pass over the evidence table.
type FreshnessRun struct {
	ID            string     `json:"id"                    db:"id"`
	Trigger       RunTrigger `json:"trigger"               db:"trigger"`
	StartedAt     time.Time  `json:"started_at"            db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Checked       int        `json:"checked"               db:"checked"`
	MarkedStale   int        `json:"marked_stale"          db:"marked_stale"`
	Skipped       int        `json:"skipped"               db:"skipped"`
	ProbeFailures int        `json:"probe_failures"        db:"probe_failures"`
	WriteFailures int        `json:"write_failures"        db:"write_failures"`
	Error         *string    `json:"error,omitempty"       db:"error"`
	NextCursor    *string    `json:"next_cursor,omitempty" db:"next_cursor"`
}

// Summary returns the wire summary of the run.
func (r *FreshnessRun) Summary() RunSummary {
	return RunSummary{Checked: r.Checked, MarkedStale: r.MarkedStale}
}

// CompleteFreshnessRunRequest carries the final counters of a run.
type CompleteFreshnessRunRequest struct {
	ID            string
	FinishedAt    time.Time
	Checked       int
	MarkedStale   int
	Skipped       int
	ProbeFailures int
	WriteFailures int
	Error         *string
	NextCursor    *string
}
