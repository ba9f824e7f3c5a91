package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/onco-dash/citewatch/internal/core"
	"github.com/onco-dash/citewatch/internal/data/pgxutil"
	"github.com/onco-dash/citewatch/internal/domain/model"
)

// ErrFreshnessRunNotFound is returned when a run row does not exist.
var ErrFreshnessRunNotFound = errors.New("freshness run not found")

const (
	freshnessRunColumns = `id, trigger, started_at, finished_at, checked, marked_stale, skipped,
		probe_failures, write_failures, error, next_cursor`

	defaultRunListLimit = 20
	maxRunListLimit     = 500
)

// FreshnessRunRepo implements the FreshnessRunRepository interface using PostgreSQL.
type FreshnessRunRepo struct {
	DB *sql.DB
}

// NewFreshnessRunRepo creates a new FreshnessRunRepo with the given database connection.
func NewFreshnessRunRepo(db *sql.DB) *FreshnessRunRepo {
	return &FreshnessRunRepo{DB: db}
}

var _ core.FreshnessRunRepository = (*FreshnessRunRepo)(nil)

// Start inserts an unfinished run row.
func (r *FreshnessRunRepo) Start(
	ctx context.Context,
	trigger model.RunTrigger,
	startedAt time.Time,
) (*model.FreshnessRun, error) {
	if !trigger.Valid() {
		return nil, fmt.Errorf("invalid run trigger: %q", trigger)
	}

	var out model.FreshnessRun
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO freshness_runs (id, trigger, started_at)
			VALUES ($1, $2, $3)
			RETURNING `+freshnessRunColumns,
			uuid.NewString(), string(trigger), startedAt.UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.FreshnessRun])
		return e
	}); err != nil {
		return nil, fmt.Errorf("start freshness run: %w", err)
	}
	return &out, nil
}

// Complete stores the final counters of a run.
func (r *FreshnessRunRepo) Complete(
	ctx context.Context,
	req *model.CompleteFreshnessRunRequest,
) (*model.FreshnessRun, error) {
	if req == nil || req.ID == "" {
		return nil, errors.New("complete freshness run: id is required")
	}

	var out model.FreshnessRun
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE freshness_runs SET
				finished_at = $2,
				checked = $3,
				marked_stale = $4,
				skipped = $5,
				probe_failures = $6,
				write_failures = $7,
				error = $8,
				next_cursor = $9
			WHERE id = $1
			RETURNING `+freshnessRunColumns,
			req.ID,
			req.FinishedAt.UTC(),
			req.Checked,
			req.MarkedStale,
			req.Skipped,
			req.ProbeFailures,
			req.WriteFailures,
			req.Error,
			req.NextCursor,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.FreshnessRun])
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFreshnessRunNotFound
		}
		return nil, fmt.Errorf("complete freshness run: %w", err)
	}
	return &out, nil
}

// LastCursor returns the next_cursor of the most recently finished run.
func (r *FreshnessRunRepo) LastCursor(ctx context.Context) (string, error) {
	var cursor *string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT next_cursor FROM freshness_runs
			WHERE finished_at IS NOT NULL
			ORDER BY finished_at DESC
			LIMIT 1
		`).Scan(&cursor)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("last freshness cursor: %w", err)
	}
	if cursor == nil {
		return "", nil
	}
	return *cursor, nil
}

// List returns recent runs, newest first.
func (r *FreshnessRunRepo) List(ctx context.Context, limit int) ([]*model.FreshnessRun, error) {
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	if limit > maxRunListLimit {
		limit = maxRunListLimit
	}

	var rowsOut []model.FreshnessRun
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(
			ctx,
			`SELECT `+freshnessRunColumns+` FROM freshness_runs ORDER BY started_at DESC, id LIMIT $1`,
			limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.FreshnessRun])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list freshness runs: %w", err)
	}

	res := make([]*model.FreshnessRun, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
