package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// AnalysisResultStore implements storage.AnalysisResultStore using PostgreSQL.
// Stats and advice are stored as JSONB documents next to the keyed columns.
type AnalysisResultStore struct {
	pool *Pool
}

// NewAnalysisResultStore creates a new AnalysisResultStore.
func NewAnalysisResultStore(pool *Pool) *AnalysisResultStore {
	return &AnalysisResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisResultStore = (*AnalysisResultStore)(nil)

const analysisResultColumns = `
	id, symbol, period, horizon, as_of,
	reference_price, tolerance, match_count,
	stats, advice, created_at
`

// Insert adds a new result. Returns ErrDuplicateKey if id exists.
func (s *AnalysisResultStore) Insert(ctx context.Context, r *domain.AnalysisResult) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analysis_results (` + analysisResultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.Symbol, r.Period, r.Horizon, r.AsOf,
		r.ReferencePrice, r.Tolerance, r.MatchCount,
		r.Stats, r.Advice, r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis result: %w", err)
	}
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisResultStore) GetByID(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	query := `SELECT ` + analysisResultColumns + ` FROM analysis_results WHERE id = $1`

	r, err := scanAnalysisResult(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis result by id: %w", err)
	}
	return r, nil
}

// GetBySymbol retrieves all results for a symbol, ordered by as_of ASC, horizon ASC.
func (s *AnalysisResultStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.AnalysisResult, error) {
	query := `
		SELECT ` + analysisResultColumns + `
		FROM analysis_results
		WHERE symbol = $1
		ORDER BY as_of ASC, horizon ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get analysis results by symbol: %w", err)
	}
	defer rows.Close()

	var results []*domain.AnalysisResult
	for rows.Next() {
		r, err := scanAnalysisResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis result row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis result rows: %w", err)
	}

	return results, nil
}

// scanAnalysisResult scans a single row into an AnalysisResult.
func scanAnalysisResult(row pgx.Row) (*domain.AnalysisResult, error) {
	var r domain.AnalysisResult
	var advice *domain.PositionAdvice

	err := row.Scan(
		&r.ID, &r.Symbol, &r.Period, &r.Horizon, &r.AsOf,
		&r.ReferencePrice, &r.Tolerance, &r.MatchCount,
		&r.Stats, &advice, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.AsOf = r.AsOf.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	r.Advice = advice
	return &r, nil
}
