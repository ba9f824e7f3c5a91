package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/onco-dash/citewatch/internal/core"
	"github.com/onco-dash/citewatch/internal/data/pgxutil"
	"github.com/onco-dash/citewatch/internal/domain/model"
)

const (
	evidenceColumns = `unique_hash, claim, citations, created_at`

	// DefaultEvidencePageSize is used when ListPage is called without a limit.
	DefaultEvidencePageSize = 200
	maxEvidencePageSize     = 5000
)

// evidenceRow mirrors the evidence table before citations are narrowed.
type evidenceRow struct {
	UniqueHash string    `db:"unique_hash"`
	Claim      string    `db:"claim"`
	Citations  []byte    `db:"citations"`
	CreatedAt  time.Time `db:"created_at"`
}

// EvidenceRepo implements the EvidenceRepository interface using PostgreSQL.
type EvidenceRepo struct {
	DB           *sql.DB
	extractor    *CitationExtractor
	timeProvider TimeProvider
	logger       *slog.Logger
}

// EvidenceRepoOptions bundles optional settings for NewEvidenceRepo.
type EvidenceRepoOptions struct {
	// CitationsPath locates the citations array; CitationURLPath reads each citation's URL.
	CitationsPath   string
	CitationURLPath string
	Logger          *slog.Logger
}

// NewEvidenceRepo creates a new EvidenceRepo with the given database connection.
func NewEvidenceRepo(db *sql.DB, opts EvidenceRepoOptions) (*EvidenceRepo, error) {
	if db == nil {
		return nil, ErrDatabaseRequired
	}
	extractor, err := NewCitationExtractor(CitationExtractorOptions{
		CitationsExpr: opts.CitationsPath,
		URLExpr:       opts.CitationURLPath,
	})
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EvidenceRepo{
		DB:           db,
		extractor:    extractor,
		timeProvider: &RealTimeProvider{},
		logger:       logger.With("component", "evidence_repo"),
	}, nil
}

var _ core.EvidenceRepository = (*EvidenceRepo)(nil)

// ListPage returns up to opts.Limit evidence records ordered by unique_hash.
// Records whose citations cannot be narrowed are logged and returned with no citations.
func (r *EvidenceRepo) ListPage(ctx context.Context, opts model.EvidenceListOptions) ([]model.EvidenceRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultEvidencePageSize
	}
	if limit > maxEvidencePageSize {
		limit = maxEvidencePageSize
	}

	var rowsOut []evidenceRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+evidenceColumns+`
			FROM evidence
			WHERE $1 = '' OR unique_hash > $1
			ORDER BY unique_hash
			LIMIT $2
		`, opts.After, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[evidenceRow])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}

	out := make([]model.EvidenceRecord, len(rowsOut))
	for i, row := range rowsOut {
		citations, err := r.extractor.Extract(row.Citations)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping malformed citations",
				"unique_hash", row.UniqueHash,
				"error", err,
			)
			citations = nil
		}
		out[i] = model.EvidenceRecord{
			UniqueHash: row.UniqueHash,
			Claim:      row.Claim,
			Citations:  citations,
			CreatedAt:  row.CreatedAt,
		}
	}
	return out, nil
}

// Upsert inserts or replaces an evidence record. Used for seeding fixtures.
func (r *EvidenceRepo) Upsert(ctx context.Context, req *model.UpsertEvidenceRequest) (*model.EvidenceRecord, error) {
	if req == nil {
		return nil, fmt.Errorf("upsert evidence: request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	citations := req.Citations
	if citations == nil {
		citations = []model.Citation{}
	}
	payload, err := json.Marshal(citations)
	if err != nil {
		return nil, fmt.Errorf("encode citations: %w", err)
	}

	var row evidenceRow
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO evidence (unique_hash, claim, citations, created_at)
			VALUES ($1, $2, $3::jsonb, $4)
			ON CONFLICT (unique_hash) DO UPDATE
			SET claim = EXCLUDED.claim, citations = EXCLUDED.citations
			RETURNING `+evidenceColumns, req.UniqueHash, req.Claim, string(payload), r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[evidenceRow])
		return err
	}); err != nil {
		return nil, fmt.Errorf("upsert evidence: %w", err)
	}

	out := model.EvidenceRecord{UniqueHash: row.UniqueHash, Claim: row.Claim, CreatedAt: row.CreatedAt}
	out.Citations, _ = r.extractor.Extract(row.Citations)
	return &out, nil
}
