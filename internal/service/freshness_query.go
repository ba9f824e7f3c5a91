package service

import (
	"context"
	"errors"
	"strings"

	"github.com/onco-dash/citewatch/internal/core"
	"github.com/onco-dash/citewatch/internal/domain/model"
)

// FreshnessQueryServiceOptions groups dependencies for FreshnessQueryService.
type FreshnessQueryServiceOptions struct {
	Statuses core.FreshnessStatusRepository // Required
	Runs     core.FreshnessRunRepository    // Optional
}

// FreshnessQueryService exposes read-only views over stored statuses and run history.
type FreshnessQueryService struct {
	statuses core.FreshnessStatusRepository
	runs     core.FreshnessRunRepository
}

// ErrRunHistoryUnavailable is returned by Runs when no run repository is configured.
var ErrRunHistoryUnavailable = errors.New("run history is not configured")

// NewFreshnessQueryService constructs a FreshnessQueryService.
func NewFreshnessQueryService(opts FreshnessQueryServiceOptions) (*FreshnessQueryService, error) {
	if opts.Statuses == nil {
		return nil, errors.New("FreshnessStatusRepository is required")
	}
	return &FreshnessQueryService{statuses: opts.Statuses, runs: opts.Runs}, nil
}

// Status returns the stored status for uniqueHash or model.ErrFreshnessStatusNotFound.
func (s *FreshnessQueryService) Status(ctx context.Context, uniqueHash string) (*model.FreshnessStatus, error) {
	uniqueHash = strings.TrimSpace(uniqueHash)
	if uniqueHash == "" {
		return nil, model.ErrFreshnessStatusNotFound
	}
	return s.statuses.GetByHash(ctx, uniqueHash)
}

// Stale lists statuses currently flagged stale, most recently checked first.
func (s *FreshnessQueryService) Stale(ctx context.Context, limit, offset int) ([]*model.FreshnessStatus, error) {
	return s.statuses.List(ctx, &model.FreshnessStatusListOptions{
		StaleOnly: true,
		Limit:     limit,
		Offset:    max(offset, 0),
	})
}

// Runs lists recent freshness runs, newest first.
func (s *FreshnessQueryService) Runs(ctx context.Context, limit int) ([]*model.FreshnessRun, error) {
	if s.runs == nil {
		return nil, ErrRunHistoryUnavailable
	}
	return s.runs.List(ctx, limit)
}
