package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/onco-dash/citewatch/internal/core"
	"github.com/onco-dash/citewatch/internal/data/pgxutil"
	"github.com/onco-dash/citewatch/internal/domain/model"
)

const (
	freshnessStatusColumns = `unique_hash, last_checked_at, last_http_status, last_etag, last_modified, is_stale, last_error, updated_at`

	defaultStatusListLimit = 50
	maxStatusListLimit     = 1000
)

// FreshnessStatusRepo implements the FreshnessStatusRepository interface using PostgreSQL.
type FreshnessStatusRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewFreshnessStatusRepo creates a new FreshnessStatusRepo with the given database connection.
func NewFreshnessStatusRepo(db *sql.DB) *FreshnessStatusRepo {
	return &FreshnessStatusRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewFreshnessStatusRepoWithTimeProvider creates a repo with a custom time provider (for testing).
func NewFreshnessStatusRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *FreshnessStatusRepo {
	return &FreshnessStatusRepo{DB: db, timeProvider: tp}
}

var _ core.FreshnessStatusRepository = (*FreshnessStatusRepo)(nil)

// GetByHash returns the status row for uniqueHash.
func (r *FreshnessStatusRepo) GetByHash(ctx context.Context, uniqueHash string) (*model.FreshnessStatus, error) {
	if strings.TrimSpace(uniqueHash) == "" {
		return nil, errors.New("unique_hash is required")
	}

	var out model.FreshnessStatus
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(
			ctx,
			`SELECT `+freshnessStatusColumns+` FROM freshness_status WHERE unique_hash = $1`,
			uniqueHash,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.FreshnessStatus])
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrFreshnessStatusNotFound
		}
		return nil, fmt.Errorf("get freshness status: %w", err)
	}
	return &out, nil
}

// Upsert writes a complete snapshot keyed by unique_hash. Concurrent or repeated
// writes for the same hash converge to a single row.
func (r *FreshnessStatusRepo) Upsert(
	ctx context.Context,
	req *model.UpsertFreshnessStatusRequest,
) (*model.FreshnessStatus, error) {
	if req == nil {
		return nil, errors.New("upsert freshness status: request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.FreshnessStatus
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO freshness_status (
				unique_hash, last_checked_at, last_http_status, last_etag,
				last_modified, is_stale, last_error, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (unique_hash) DO UPDATE SET
				last_checked_at = EXCLUDED.last_checked_at,
				last_http_status = EXCLUDED.last_http_status,
				last_etag = EXCLUDED.last_etag,
				last_modified = EXCLUDED.last_modified,
				is_stale = EXCLUDED.is_stale,
				last_error = EXCLUDED.last_error,
				updated_at = EXCLUDED.updated_at
			RETURNING `+freshnessStatusColumns,
			req.UniqueHash,
			req.CheckedAt.UTC(),
			req.HTTPStatus,
			req.EntityTag,
			req.LastModifiedHeader,
			req.IsStale,
			req.Error,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.FreshnessStatus])
		return e
	}); err != nil {
		return nil, fmt.Errorf("upsert freshness status: %w", err)
	}
	return &out, nil
}

// List returns status rows, most recently checked first.
func (r *FreshnessStatusRepo) List(
	ctx context.Context,
	opts *model.FreshnessStatusListOptions,
) ([]*model.FreshnessStatus, error) {
	if opts == nil {
		opts = &model.FreshnessStatusListOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultStatusListLimit
	}
	if limit > maxStatusListLimit {
		limit = maxStatusListLimit
	}
	offset := max(opts.Offset, 0)

	where := ""
	if opts.StaleOnly {
		where = "WHERE is_stale"
	}
	query := `SELECT ` + freshnessStatusColumns + ` FROM freshness_status ` + where +
		` ORDER BY last_checked_at DESC, unique_hash LIMIT $1 OFFSET $2`

	var rowsOut []model.FreshnessStatus
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.FreshnessStatus])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list freshness status: %w", err)
	}

	res := make([]*model.FreshnessStatus, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
