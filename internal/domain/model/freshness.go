package model

import (
	"errors"
	"time"
)

// ErrFreshnessStatusNotFound is returned when no status row exists for a hash.
var ErrFreshnessStatusNotFound = errors.New("freshness status not found")

// FreshnessStatus is the last observation recorded for an evidence record's first citation.
// At most one row exists per UniqueHash.
type FreshnessStatus struct {
	UniqueHash         string    `json:"unique_hash"                    db:"unique_hash"`
	LastCheckedAt      time.Time `json:"last_checked_at"                db:"last_checked_at"`
	LastHTTPStatus     int       `json:"last_http_status"               db:"last_http_status"`
	LastEntityTag      *string   `json:"last_etag,omitempty"            db:"last_etag"`
	LastModifiedHeader *string   `json:"last_modified_header,omitempty" db:"last_modified"`
	IsStale            bool      `json:"is_stale"                       db:"is_stale"`
	LastError          *string   `json:"last_error,omitempty"           db:"last_error"`
	UpdatedAt          time.Time `json:"updated_at"                     db:"updated_at"`
}

// HasRecordedStatus reports whether a previous probe completed with a status code.
// A stored 0 means the request never completed.
func (s *FreshnessStatus) HasRecordedStatus() bool {
	return s != nil && s.LastHTTPStatus != 0
}

// UpsertFreshnessStatusRequest is the complete snapshot written back after a probe.
type UpsertFreshnessStatusRequest struct {
	UniqueHash         string
	CheckedAt          time.Time
	HTTPStatus         int
	EntityTag          *string
	LastModifiedHeader *string
	IsStale            bool
	Error              *string
}

// Validate validates the UpsertFreshnessStatusRequest fields.
func (r *UpsertFreshnessStatusRequest) Validate() error {
	if r.UniqueHash == "" {
		return errors.New("unique_hash is required")
	}
	if r.CheckedAt.IsZero() {
		return errors.New("checked_at is required")
	}
	if r.HTTPStatus < 0 {
		return errors.New("http status must be >= 0")
	}
	return nil
}

// FreshnessStatusListOptions represents options for listing status rows.
type FreshnessStatusListOptions struct {
	StaleOnly bool
	Limit     int
	Offset    int
}

// ProbeMethod names the HTTP method that produced a probe observation.
type ProbeMethod string

const (
	// ProbeMethodHead is a plain HEAD request.
	ProbeMethodHead ProbeMethod = "HEAD"
	// ProbeMethodRangedGet is a one-byte ranged GET used when HEAD is rejected.
	ProbeMethodRangedGet ProbeMethod = "GET"
)

// ProbeResult is the in-memory outcome of a metadata probe. It is never persisted directly.
type ProbeResult struct {
	URL          string
	OK           bool
	Status       int
	ETag         *string
	LastModified *string
	Error        *string
	Method       ProbeMethod
	Duration     time.Duration
	// SourceDomain is the registrable domain (eTLD+1) of URL, empty when it cannot be derived.
	SourceDomain string
}

// Completed reports whether the request produced an HTTP status.
func (p ProbeResult) Completed() bool {
	return p.Status != 0
}

// RunSummary is the wire result of a freshness run.
type RunSummary struct {
	Checked     int `json:"checked"`
	MarkedStale int `json:"markedStale"`
}
