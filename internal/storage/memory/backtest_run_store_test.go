package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

func TestBacktestRunStore_InsertDropsTrades(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	run := &domain.BacktestResult{
		RunID:       "run1",
		StrategyID:  "analog",
		EquityCurve: []float64{100, 101},
		Trades:      []domain.Trade{{ID: "t1", RunID: "run1"}},
	}
	if err := store.Insert(ctx, run); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	run.EquityCurve[0] = -1

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Trades) != 0 {
		t.Errorf("expected trades to be dropped, got %d", len(got.Trades))
	}
	if got.EquityCurve[0] != 100 {
		t.Errorf("equity curve was aliased: %v", got.EquityCurve)
	}

	if err := store.Insert(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestBacktestRunStore_GetByStrategy(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = store.Insert(ctx, &domain.BacktestResult{RunID: "b", StrategyID: "analog", StartedAt: t0.Add(time.Minute)})
	_ = store.Insert(ctx, &domain.BacktestResult{RunID: "a", StrategyID: "analog", StartedAt: t0})
	_ = store.Insert(ctx, &domain.BacktestResult{RunID: "c", StrategyID: "rsi", StartedAt: t0})

	runs, err := store.GetByStrategy(ctx, "analog")
	if err != nil {
		t.Fatalf("GetByStrategy failed: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "a" || runs[1].RunID != "b" {
		t.Errorf("unexpected runs: %+v", runs)
	}
}

func TestTradeStore_InsertBulk(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []domain.Trade{
		{ID: "t2", RunID: "r1", EntryIndex: 9},
		{ID: "t1", RunID: "r1", EntryIndex: 2},
		{ID: "t3", RunID: "r2", EntryIndex: 1},
	}
	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("unexpected trades: %+v", got)
	}

	// Whole batch rejected when any trade is a duplicate
	err = store.InsertBulk(ctx, []domain.Trade{{ID: "t4", RunID: "r1"}, {ID: "t1", RunID: "r1"}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	got, _ = store.GetByRunID(ctx, "r1")
	if len(got) != 2 {
		t.Errorf("failed batch must not be written, got %d trades", len(got))
	}
}
