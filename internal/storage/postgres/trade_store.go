package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	for i := range trades {
		if trades[i].ID == "" || trades[i].RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trades (
			trade_id, run_id,
			entry_index, entry_date, entry_price, shares, entry_commission,
			exit_index, exit_date, exit_price, exit_commission, exit_reason,
			pnl, trade_return
		) VALUES (
			$1, $2,
			$3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14
		)
	`

	for _, t := range trades {
		_, err := tx.Exec(ctx, query,
			t.ID, t.RunID,
			t.EntryIndex, t.EntryDate, t.EntryPrice, t.Shares, t.EntryCommission,
			t.ExitIndex, t.ExitDate, t.ExitPrice, t.ExitCommission, t.ExitReason,
			t.PnL, t.Return,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all trades for a run, ordered by entry_index ASC.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error) {
	query := `
		SELECT
			trade_id, run_id,
			entry_index, entry_date, entry_price, shares, entry_commission,
			exit_index, exit_date, exit_price, exit_commission, exit_reason,
			pnl, trade_return
		FROM trades
		WHERE run_id = $1
		ORDER BY entry_index ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trades by run id: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade

	for rows.Next() {
		var t domain.Trade

		err := rows.Scan(
			&t.ID, &t.RunID,
			&t.EntryIndex, &t.EntryDate, &t.EntryPrice, &t.Shares, &t.EntryCommission,
			&t.ExitIndex, &t.ExitDate, &t.ExitPrice, &t.ExitCommission, &t.ExitReason,
			&t.PnL, &t.Return,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.EntryDate = t.EntryDate.UTC()
		t.ExitDate = t.ExitDate.UTC()
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
