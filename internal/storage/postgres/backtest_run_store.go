package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// BacktestRunStore implements storage.BacktestRunStore using PostgreSQL.
type BacktestRunStore struct {
	pool *Pool
}

// NewBacktestRunStore creates a new BacktestRunStore.
func NewBacktestRunStore(pool *Pool) *BacktestRunStore {
	return &BacktestRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)

const backtestRunColumns = `
	run_id, symbol, strategy_id, started_at,
	config, equity_curve, daily_returns, open_position, report
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
// Trades are not written here; see TradeStore.
func (s *BacktestRunStore) Insert(ctx context.Context, r *domain.BacktestResult) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO backtest_runs (` + backtestRunColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.Symbol, r.StrategyID, r.StartedAt,
		r.Config, r.EquityCurve, r.DailyReturns, r.OpenPosition, r.Report,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// GetByID retrieves a run without trades. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(ctx context.Context, runID string) (*domain.BacktestResult, error) {
	query := `SELECT ` + backtestRunColumns + ` FROM backtest_runs WHERE run_id = $1`

	r, err := scanBacktestRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}
	return r, nil
}

// GetByStrategy retrieves all runs for a strategy, ordered by started_at ASC.
func (s *BacktestRunStore) GetByStrategy(ctx context.Context, strategyID string) ([]*domain.BacktestResult, error) {
	query := `
		SELECT ` + backtestRunColumns + `
		FROM backtest_runs
		WHERE strategy_id = $1
		ORDER BY started_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("get backtest runs by strategy: %w", err)
	}
	defer rows.Close()

	var runs []*domain.BacktestResult
	for rows.Next() {
		r, err := scanBacktestRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backtest run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest run rows: %w", err)
	}

	return runs, nil
}

// scanBacktestRun scans a single row into a BacktestResult.
func scanBacktestRun(row pgx.Row) (*domain.BacktestResult, error) {
	var r domain.BacktestResult

	err := row.Scan(
		&r.RunID, &r.Symbol, &r.StrategyID, &r.StartedAt,
		&r.Config, &r.EquityCurve, &r.DailyReturns, &r.OpenPosition, &r.Report,
	)
	if err != nil {
		return nil, err
	}

	r.StartedAt = r.StartedAt.UTC()
	return &r, nil
}
