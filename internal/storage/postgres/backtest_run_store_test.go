package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

func createTestRun(runID, strategyID string, startedAt time.Time) *domain.BacktestResult {
	cfg := domain.DefaultBacktestConfig()
	cfg.StopLoss = ptr(0.05)

	return &domain.BacktestResult{
		RunID:        runID,
		Symbol:       "AAA",
		StrategyID:   strategyID,
		Config:       cfg,
		StartedAt:    startedAt,
		EquityCurve:  []float64{100000, 100500, 99800},
		DailyReturns: []float64{0, 0.005, -0.006965},
		OpenPosition: true,
		Report: domain.PerformanceReport{
			TotalReturn:  -0.002,
			MaxDrawdown:  -0.006965,
			TotalTrades:  1,
			ProfitFactor: ptr(1.5),
			Bars:         3,
			FinalEquity:  99800,
		},
	}
}

func createTestTrade(runID, id string, entry int) domain.Trade {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return domain.Trade{
		ID:              id,
		RunID:           runID,
		EntryIndex:      entry,
		EntryDate:       day.AddDate(0, 0, entry),
		EntryPrice:      10.01,
		Shares:          100,
		EntryCommission: 0.3,
		ExitIndex:       entry + 2,
		ExitDate:        day.AddDate(0, 0, entry+2),
		ExitPrice:       10.49,
		ExitCommission:  0.31,
		ExitReason:      domain.ExitReasonSignal,
		PnL:             47.39,
		Return:          0.0473,
	}
}

func TestBacktestRunStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBacktestRunStore(pool)
	started := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	run := createTestRun("run-1", "analog", started)

	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "AAA", got.Symbol)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Equal(t, run.EquityCurve, got.EquityCurve)
	assert.Equal(t, run.DailyReturns, got.DailyReturns)
	assert.True(t, got.OpenPosition)
	require.NotNil(t, got.Config.StopLoss)
	assert.InDelta(t, 0.05, *got.Config.StopLoss, 1e-12)
	require.NotNil(t, got.Report.ProfitFactor)
	assert.InDelta(t, 1.5, *got.Report.ProfitFactor, 1e-12)
	assert.Empty(t, got.Trades)

	assert.ErrorIs(t, store.Insert(ctx, run), storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBacktestRunStore_GetByStrategy(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBacktestRunStore(pool)
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, createTestRun("run-2", "analog", t0.Add(time.Hour))))
	require.NoError(t, store.Insert(ctx, createTestRun("run-1", "analog", t0)))
	require.NoError(t, store.Insert(ctx, createTestRun("run-3", "rsi", t0)))

	runs, err := store.GetByStrategy(ctx, "analog")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "run-2", runs[1].RunID)
}

func TestTradeStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	runs := NewBacktestRunStore(pool)
	trades := NewTradeStore(pool)

	require.NoError(t, runs.Insert(ctx, createTestRun("run-1", "analog", time.Now().UTC())))

	batch := []domain.Trade{
		createTestTrade("run-1", "t-2", 10),
		createTestTrade("run-1", "t-1", 3),
	}
	require.NoError(t, trades.InsertBulk(ctx, batch))

	got, err := trades.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t-1", got[0].ID)
	assert.Equal(t, 3, got[0].EntryIndex)
	assert.Equal(t, int64(100), got[0].Shares)
	assert.Equal(t, domain.ExitReasonSignal, got[0].ExitReason)
	assert.True(t, got[0].EntryDate.Equal(batch[1].EntryDate))
}

func TestTradeStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	runs := NewBacktestRunStore(pool)
	trades := NewTradeStore(pool)

	require.NoError(t, runs.Insert(ctx, createTestRun("run-1", "analog", time.Now().UTC())))
	require.NoError(t, trades.InsertBulk(ctx, []domain.Trade{createTestTrade("run-1", "t-1", 1)}))

	err := trades.InsertBulk(ctx, []domain.Trade{
		createTestTrade("run-1", "t-2", 5),
		createTestTrade("run-1", "t-1", 1),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := trades.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed batch must roll back")
}
