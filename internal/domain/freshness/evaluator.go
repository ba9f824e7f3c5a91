// Package freshness holds the pure staleness rules applied to citation probes.
package freshness

import (
	"time"

	"github.com/onco-dash/citewatch/internal/domain/model"
)

// Reason names a staleness rule that fired.
type Reason string

const (
	// ReasonETagChanged fires when both the stored and observed entity tags exist and differ.
	ReasonETagChanged Reason = "etag_changed"
	// ReasonLastModifiedChanged fires when both Last-Modified values exist and differ.
	ReasonLastModifiedChanged Reason = "last_modified_changed"
	// ReasonStatusChanged fires when a failed probe returns a status different from the recorded one.
	ReasonStatusChanged Reason = "status_changed"
)

// State is the lifecycle position of a status row.
type State string

const (
	// StateUnknown means no row exists yet.
	StateUnknown State = "unknown"
	// StateFresh is a known row whose last check found no change.
	StateFresh State = "fresh"
	// StateStale is a known row whose last check detected a change.
	StateStale State = "stale"
)

// Decision captures the outcome of evaluating one probe.
type Decision struct {
	Stale            bool
	Reasons          []Reason
	FirstObservation bool
	From             State
	To               State
}

// StateOf returns the lifecycle state of a stored status row.
func StateOf(prev *model.FreshnessStatus) State {
	switch {
	case prev == nil:
		return StateUnknown
	case prev.IsStale:
		return StateStale
	default:
		return StateFresh
	}
}

// Evaluate compares a probe with the previous stored status. It has no side effects.
// With no previous status the result is never stale.
func Evaluate(prev *model.FreshnessStatus, probe model.ProbeResult) Decision {
	d := Decision{From: StateOf(prev)}
	if prev == nil {
		d.FirstObservation = true
		d.To = StateFresh
		return d
	}

	if changed(prev.LastEntityTag, probe.ETag) {
		d.Reasons = append(d.Reasons, ReasonETagChanged)
	}
	if changed(prev.LastModifiedHeader, probe.LastModified) {
		d.Reasons = append(d.Reasons, ReasonLastModifiedChanged)
	}
	if !probe.OK && prev.HasRecordedStatus() && prev.LastHTTPStatus != probe.Status {
		d.Reasons = append(d.Reasons, ReasonStatusChanged)
	}

	d.Stale = len(d.Reasons) > 0
	d.To = StateFresh
	if d.Stale {
		d.To = StateStale
	}
	return d
}

// changed is true only when both values were observed and they differ.
func changed(prev, next *string) bool {
	if !present(prev) || !present(next) {
		return false
	}
	return *prev != *next
}

func present(v *string) bool {
	return v != nil && *v != ""
}

// Snapshot builds the complete row written back for a probe and its decision.
// Unobserved headers are stored as NULL, replacing previous values.
func Snapshot(
	uniqueHash string,
	probe model.ProbeResult,
	d Decision,
	checkedAt time.Time,
) model.UpsertFreshnessStatusRequest {
	return model.UpsertFreshnessStatusRequest{
		UniqueHash:         uniqueHash,
		CheckedAt:          checkedAt,
		HTTPStatus:         probe.Status,
		EntityTag:          normalize(probe.ETag),
		LastModifiedHeader: normalize(probe.LastModified),
		IsStale:            d.Stale,
		Error:              normalize(probe.Error),
	}
}

func normalize(v *string) *string {
	if !present(v) {
		return nil
	}
	s := *v
	return &s
}
