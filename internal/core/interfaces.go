package core

import (
	"context"
	"time"

	"github.com/onco-dash/citewatch/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// EvidenceRepository reads evidence records. The freshness job never writes evidence;
// Upsert exists for seeding fixtures.
type EvidenceRepository interface {
	// ListPage returns up to opts.Limit records ordered by unique hash, starting after opts.After.
	ListPage(ctx context.Context, opts model.EvidenceListOptions) ([]model.EvidenceRecord, error)
	Upsert(ctx context.Context, req *model.UpsertEvidenceRequest) (*model.EvidenceRecord, error)
}

// FreshnessStatusRepository defines the interface for freshness status data operations.
type FreshnessStatusRepository interface {
	// GetByHash returns model.ErrFreshnessStatusNotFound when no row exists.
	GetByHash(ctx context.Context, uniqueHash string) (*model.FreshnessStatus, error)
	// Upsert inserts or replaces the row keyed by req.UniqueHash.
	Upsert(ctx context.Context, req *model.UpsertFreshnessStatusRequest) (*model.FreshnessStatus, error)
	List(ctx context.Context, opts *model.FreshnessStatusListOptions) ([]*model.FreshnessStatus, error)
}

// FreshnessRunRepository records run history.
type FreshnessRunRepository interface {
	Start(ctx context.Context, trigger model.RunTrigger, startedAt time.Time) (*model.FreshnessRun, error)
	Complete(ctx context.Context, req *model.CompleteFreshnessRunRequest) (*model.FreshnessRun, error)
	// LastCursor returns the next_cursor of the most recent finished run, or "" when there is none.
	LastCursor(ctx context.Context) (string, error)
	List(ctx context.Context, limit int) ([]*model.FreshnessRun, error)
}

// Prober performs a metadata-only request against a citation URL.
// Implementations never return an error: failures are folded into the result.
type Prober interface {
	Probe(ctx context.Context, rawURL string) model.ProbeResult
}

// TimeProvider abstracts the clock for deterministic tests.
type TimeProvider interface {
	Now() time.Time
}
