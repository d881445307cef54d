package clickhouse

import (
	"context"
	"fmt"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// StrategyAggregateStore implements storage.StrategyAggregateStore using ClickHouse.
// Rows are append-only; each recomputation adds a new computed_at version.
type StrategyAggregateStore struct {
	conn *Conn
}

// NewStrategyAggregateStore creates a new StrategyAggregateStore.
func NewStrategyAggregateStore(conn *Conn) *StrategyAggregateStore {
	return &StrategyAggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.StrategyAggregateStore = (*StrategyAggregateStore)(nil)

const aggregateColumns = `
	strategy_id, computed_at,
	runs, symbols, total_trades,
	return_mean, return_median, return_p25, return_p75, return_stddev, return_min, return_max,
	mean_sharpe, worst_drawdown, trade_win_rate, run_win_rate
`

// Insert adds a new aggregate. Returns ErrDuplicateKey if (strategy_id, computed_at) exists.
func (s *StrategyAggregateStore) Insert(ctx context.Context, a *domain.StrategyAggregate) error {
	if a == nil || a.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, a)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO strategy_aggregates (` + aggregateColumns + `) VALUES (
			?, ?,
			?, ?, ?,
			?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?
		)
	`

	err = s.conn.Exec(ctx, query,
		a.StrategyID, a.ComputedAt.UTC(),
		uint32(a.Runs), uint32(a.Symbols), uint32(a.TotalTrades),
		a.ReturnMean, a.ReturnMedian, a.ReturnP25, a.ReturnP75, a.ReturnStddev, a.ReturnMin, a.ReturnMax,
		a.MeanSharpe, a.WorstDrawdown, a.TradeWinRate, a.RunWinRate,
	)
	if err != nil {
		return fmt.Errorf("insert strategy aggregate: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent aggregate for a strategy.
func (s *StrategyAggregateStore) GetLatest(ctx context.Context, strategyID string) (*domain.StrategyAggregate, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM strategy_aggregates
		WHERE strategy_id = ?
		ORDER BY computed_at DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("query latest aggregate: %w", err)
	}
	defer rows.Close()

	aggregates, err := scanStrategyAggregates(rows)
	if err != nil {
		return nil, err
	}
	if len(aggregates) == 0 {
		return nil, storage.ErrNotFound
	}
	return aggregates[0], nil
}

// GetAll retrieves the most recent aggregate of every strategy.
func (s *StrategyAggregateStore) GetAll(ctx context.Context) ([]*domain.StrategyAggregate, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM strategy_aggregates
		ORDER BY strategy_id ASC, computed_at DESC
		LIMIT 1 BY strategy_id
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanStrategyAggregates(rows)
}

// exists checks if an aggregate with the same key exists.
func (s *StrategyAggregateStore) exists(ctx context.Context, a *domain.StrategyAggregate) (bool, error) {
	query := `
		SELECT count(*) FROM strategy_aggregates
		WHERE strategy_id = ? AND computed_at = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, a.StrategyID, a.ComputedAt.UTC()).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanStrategyAggregates scans multiple rows into a slice.
func scanStrategyAggregates(rows chRows) ([]*domain.StrategyAggregate, error) {
	var aggregates []*domain.StrategyAggregate

	for rows.Next() {
		var a domain.StrategyAggregate
		var runs, symbols, trades uint32
		err := rows.Scan(
			&a.StrategyID, &a.ComputedAt,
			&runs, &symbols, &trades,
			&a.ReturnMean, &a.ReturnMedian, &a.ReturnP25, &a.ReturnP75, &a.ReturnStddev, &a.ReturnMin, &a.ReturnMax,
			&a.MeanSharpe, &a.WorstDrawdown, &a.TradeWinRate, &a.RunWinRate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		a.Runs = int(runs)
		a.Symbols = int(symbols)
		a.TotalTrades = int(trades)
		a.ComputedAt = a.ComputedAt.UTC()
		aggregates = append(aggregates, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}

	return aggregates, nil
}
