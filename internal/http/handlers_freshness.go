package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/onco-dash/citewatch/internal/errors"
	"github.com/onco-dash/citewatch/internal/domain/model"
	"github.com/onco-dash/citewatch/internal/service"
)

const (
	defaultStaleLimit = 50
	maxStaleLimit     = 1000
	defaultRunsLimit  = 20
	maxRunsLimit      = 500
)

// FreshnessRunner starts a freshness run.
type FreshnessRunner interface {
	Run(ctx context.Context, trigger model.RunTrigger) (model.RunSummary, error)
}

// FreshnessQuery serves the read APIs.
type FreshnessQuery interface {
	Status(ctx context.Context, uniqueHash string) (*model.FreshnessStatus, error)
	Stale(ctx context.Context, limit, offset int) ([]*model.FreshnessStatus, error)
	Runs(ctx context.Context, limit int) ([]*model.FreshnessRun, error)
}

// FreshnessHandlers serves the trigger and read endpoints.
type FreshnessHandlers struct {
	Runner FreshnessRunner
	Query  FreshnessQuery
	Logger *slog.Logger
}

type listResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Run handles POST /api/freshness/run.
func (h *FreshnessHandlers) Run(w http.ResponseWriter, r *http.Request) {
	// The run finishes and records its result even if the caller disconnects;
	// the run timeout bounds it.
	ctx := context.WithoutCancel(r.Context())

	summary, err := h.Runner.Run(ctx, model.RunTriggerHTTP)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, summary)
	case errors.Is(err, model.ErrRunInProgress):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "run_in_progress", Err: err})
	case errors.Is(err, service.ErrEvidenceQuery):
		h.logger().ErrorContext(r.Context(), "freshness run failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "evidence_query_failed", Err: err})
	default:
		h.logger().ErrorContext(r.Context(), "freshness run failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "run_failed", Err: err})
	}
}

// Status handles GET /api/freshness/status/{hash}.
func (h *FreshnessHandlers) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.Query.Status(r.Context(), r.PathValue("hash"))
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

// Stale handles GET /api/freshness/stale.
func (h *FreshnessHandlers) Stale(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultStaleLimit, maxStaleLimit)
	items, err := h.Query.Stale(r.Context(), limit, offset)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	if items == nil {
		items = []*model.FreshnessStatus{}
	}
	WriteJSON(w, http.StatusOK, listResponse[*model.FreshnessStatus]{Items: items, Limit: limit, Offset: offset})
}

// Runs handles GET /api/freshness/runs.
func (h *FreshnessHandlers) Runs(w http.ResponseWriter, r *http.Request) {
	limit, _ := ParseLimitOffset(r, defaultRunsLimit, maxRunsLimit)
	items, err := h.Query.Runs(r.Context(), limit)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	if items == nil {
		items = []*model.FreshnessRun{}
	}
	WriteJSON(w, http.StatusOK, listResponse[*model.FreshnessRun]{Items: items, Limit: limit})
}

func (h *FreshnessHandlers) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrFreshnessStatusNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: string(apperrors.ErrCodeNotFound), Err: err})
		return
	case errors.Is(err, service.ErrRunHistoryUnavailable):
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: string(apperrors.ErrCodeUnavailable), Err: err})
		return
	}

	mapped := apperrors.MapDBError(err)
	code := apperrors.HTTPStatus(mapped)
	if code >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "freshness query failed", "path", r.URL.Path, "error", err)
	}
	errCode := apperrors.GetCode(mapped)
	if errCode == "" {
		errCode = apperrors.ErrCodeInternal
	}
	WriteError(w, ErrorParams{Code: code, ErrCode: string(errCode), Err: mapped})
}

func (h *FreshnessHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
