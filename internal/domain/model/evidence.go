// Package model defines the core data types shared by the citation freshness checker.
package model

import (
	"errors"
	"strings"
	"time"
)

// Citation is a single reference attached to an evidence record.
// Only the URL is interpreted by the freshness checker.
type Citation struct {
	URL string `json:"url" yaml:"url"`
}

// EvidenceRecord is a drug-drug-interaction claim with its ordered citations.
type EvidenceRecord struct {
	UniqueHash string     `json:"unique_hash"          db:"unique_hash"`
	Claim      string     `json:"claim,omitempty"      db:"claim"`
	Citations  []Citation `json:"citations"            db:"-"`
	CreatedAt  time.Time  `json:"created_at,omitempty" db:"created_at"`
}

// FirstCitationURL returns the URL of the first citation, if any.
func (r EvidenceRecord) FirstCitationURL() (string, bool) {
	if len(r.Citations) == 0 {
		return "", false
	}
	u := strings.TrimSpace(r.Citations[0].URL)
	return u, u != ""
}

// EvidenceListOptions controls paging over the evidence table.
type EvidenceListOptions struct {
	Limit int
	// After skips every record whose hash sorts at or before it. Empty starts at the beginning.
	After string
}

// UpsertEvidenceRequest seeds or replaces an evidence record.
type UpsertEvidenceRequest struct {
	UniqueHash string     `json:"unique_hash" yaml:"unique_hash"`
	Claim      string     `json:"claim"       yaml:"claim"`
	Citations  []Citation `json:"citations"   yaml:"citations"`
}

// Normalize trims identifiers and citation URLs.
func (r *UpsertEvidenceRequest) Normalize() {
	r.UniqueHash = strings.TrimSpace(r.UniqueHash)
	r.Claim = strings.TrimSpace(r.Claim)
	for i := range r.Citations {
		r.Citations[i].URL = strings.TrimSpace(r.Citations[i].URL)
	}
}

// Validate validates the UpsertEvidenceRequest fields.
func (r *UpsertEvidenceRequest) Validate() error {
	if r.UniqueHash == "" {
		return errors.New("unique_hash is required")
	}
	return nil
}
