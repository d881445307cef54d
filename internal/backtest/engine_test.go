package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analog-lab/internal/domain"
	"analog-lab/internal/idhash"
	"analog-lab/internal/storage/memory"
)

func makeSeries(closes ...float64) *domain.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return &domain.PriceSeries{Symbol: "TEST", Bars: bars}
}

// sigs decodes B=buy, b=strong-buy, S=sell, s=strong-sell, anything else hold.
func sigs(code string) []domain.Signal {
	out := make([]domain.Signal, len(code))
	for i, c := range code {
		switch c {
		case 'B':
			out[i] = domain.SignalBuy
		case 'b':
			out[i] = domain.SignalStrongBuy
		case 'S':
			out[i] = domain.SignalSell
		case 's':
			out[i] = domain.SignalStrongSell
		default:
			out[i] = domain.SignalHold
		}
	}
	return out
}

func frictionless(capital float64) domain.BacktestConfig {
	return domain.BacktestConfig{InitialCapital: capital}
}

func ptr[T any](v T) *T {
	return &v
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	_, err := NewEngine(domain.BacktestConfig{InitialCapital: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = NewEngine(domain.BacktestConfig{InitialCapital: 100, Slippage: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestRun_AllHoldKeepsEquityConstant(t *testing.T) {
	e, err := NewEngine(domain.DefaultBacktestConfig())
	require.NoError(t, err)

	res, err := e.Run(context.Background(), makeSeries(10, 12, 9, 15, 11), sigs("....."))
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	assert.False(t, res.OpenPosition)
	for i, eq := range res.EquityCurve {
		assert.Equal(t, 100000.0, eq, "bar %d", i)
		assert.Zero(t, res.DailyReturns[i], "bar %d", i)
	}
	assert.Zero(t, res.Report.TotalReturn)
	assert.Nil(t, res.Report.ProfitFactor)
}

func TestRun_FrictionAccountingIdentity(t *testing.T) {
	cfg := domain.BacktestConfig{InitialCapital: 10000, Commission: 0.001, Slippage: 0.01}
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), makeSeries(100, 100, 100, 100), sigs("B.S."))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	tr := res.Trades[0]
	assert.Equal(t, int64(98), tr.Shares) // floor(10000 / (101 * 1.001))
	assert.InDelta(t, 101.0, tr.EntryPrice, 1e-9)
	assert.InDelta(t, 99.0, tr.ExitPrice, 1e-9)
	assert.InDelta(t, 9.898, tr.EntryCommission, 1e-9)
	assert.InDelta(t, 9.702, tr.ExitCommission, 1e-9)

	// equity_after = equity_before - c_entry - c_exit - slippage cost
	slippageCost := 2 * cfg.Slippage * 100 * float64(tr.Shares)
	want := cfg.InitialCapital - tr.EntryCommission - tr.ExitCommission - slippageCost
	assert.InDelta(t, want, res.Report.FinalEquity, 1e-6)
	assert.InDelta(t, 9784.4, res.Report.FinalEquity, 1e-6)

	assert.InDelta(t, -215.6, tr.PnL, 1e-6)
	assert.InDelta(t, -215.6/9907.898, tr.Return, 1e-9)
	assert.Equal(t, domain.ExitReasonSignal, tr.ExitReason)

	// Mark to market while long
	assert.InDelta(t, 9892.102, res.EquityCurve[0], 1e-6)
	assert.InDelta(t, 9892.102/10000-1, res.DailyReturns[0], 1e-12)
	assert.InDelta(t, 9784.4, res.EquityCurve[3], 1e-6)
}

func TestRun_SinglePositionAtATime(t *testing.T) {
	e, err := NewEngine(frictionless(1000))
	require.NoError(t, err)

	res, err := e.Run(context.Background(),
		makeSeries(10, 11, 12, 13, 14, 15, 16),
		sigs("BbBS.Bs"))
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, 0, res.Trades[0].EntryIndex, "repeat buys while long are no-ops")
	assert.Equal(t, 3, res.Trades[0].ExitIndex)
	assert.Equal(t, 5, res.Trades[1].EntryIndex)
	assert.Equal(t, 6, res.Trades[1].ExitIndex)
	for i := 1; i < len(res.Trades); i++ {
		assert.GreaterOrEqual(t, res.Trades[i].EntryIndex, res.Trades[i-1].ExitIndex)
	}
	assert.False(t, res.OpenPosition)

	// 100 shares bought at 10, sold at 13
	assert.InDelta(t, 300.0, res.Trades[0].PnL, 1e-9)
}

func TestRun_SellWhileFlatIsNoop(t *testing.T) {
	e, err := NewEngine(frictionless(1000))
	require.NoError(t, err)

	res, err := e.Run(context.Background(), makeSeries(10, 11, 12), sigs("SsS"))
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, []float64{1000, 1000, 1000}, res.EquityCurve)
}

func TestRun_StopLossOverridesSignal(t *testing.T) {
	cfg := domain.DefaultBacktestConfig()
	cfg.StopLoss = ptr(0.08)
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	// Price drops 10% the bar after entry; the sell signal later at 120 must not be used
	res, err := e.Run(context.Background(), makeSeries(100, 90, 95, 120), sigs("B..S"))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	tr := res.Trades[0]
	assert.Equal(t, domain.ExitReasonStopLoss, tr.ExitReason)
	assert.Equal(t, 1, tr.ExitIndex)
	assert.InDelta(t, 90*(1-cfg.Slippage), tr.ExitPrice, 1e-9)
	assert.Less(t, tr.PnL, 0.0)
	assert.False(t, res.OpenPosition)
}

func TestRun_StopLossBeatsBuySignal(t *testing.T) {
	cfg := frictionless(1000)
	cfg.StopLoss = ptr(0.05)
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), makeSeries(10, 9, 9), sigs("BB."))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, domain.ExitReasonStopLoss, res.Trades[0].ExitReason)
	assert.False(t, res.OpenPosition, "forced exit bar must not re-enter")
}

func TestRun_TakeProfit(t *testing.T) {
	cfg := frictionless(1000)
	cfg.TakeProfit = ptr(0.10)
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), makeSeries(100, 105, 111, 130), sigs("B..S"))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	assert.Equal(t, domain.ExitReasonTakeProfit, res.Trades[0].ExitReason)
	assert.Equal(t, 2, res.Trades[0].ExitIndex)
	assert.InDelta(t, 110.0, res.Trades[0].PnL, 1e-9)
}

func TestRun_CloseAtEnd(t *testing.T) {
	cfg := frictionless(1000)

	e, err := NewEngine(cfg)
	require.NoError(t, err)
	res, err := e.Run(context.Background(), makeSeries(10, 11, 12), sigs("B.."))
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.True(t, res.OpenPosition)
	assert.InDelta(t, 1200.0, res.Report.FinalEquity, 1e-9)

	cfg.CloseAtEnd = true
	e, err = NewEngine(cfg)
	require.NoError(t, err)
	res, err = e.Run(context.Background(), makeSeries(10, 11, 12), sigs("B.B"))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, domain.ExitReasonEndOfData, res.Trades[0].ExitReason)
	assert.Equal(t, 2, res.Trades[0].ExitIndex)
	assert.False(t, res.OpenPosition)
}

func TestRun_CloseAtEndSkipsLastBarEntry(t *testing.T) {
	cfg := frictionless(1000)
	cfg.CloseAtEnd = true
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), makeSeries(10, 11), sigs(".B"))
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.False(t, res.OpenPosition)
}

func TestRun_NonBaseLabelsAreHold(t *testing.T) {
	e, err := NewEngine(frictionless(1000))
	require.NoError(t, err)

	signals := []domain.Signal{domain.SignalCautiousBuy, domain.SignalNeutral, domain.SignalCautiousSell}
	res, err := e.Run(context.Background(), makeSeries(10, 11, 12), signals)
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.False(t, res.OpenPosition)
}

func TestRun_CannotAffordShare(t *testing.T) {
	e, err := NewEngine(domain.BacktestConfig{InitialCapital: 50, Commission: 0.01})
	require.NoError(t, err)

	res, err := e.Run(context.Background(), makeSeries(100, 100), sigs("B."))
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.False(t, res.OpenPosition)
	assert.Equal(t, []float64{50, 50}, res.EquityCurve)
}

func TestRun_InputErrors(t *testing.T) {
	e, err := NewEngine(frictionless(1000))
	require.NoError(t, err)

	_, err = e.Run(context.Background(), makeSeries(10, 11), sigs("B"))
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = e.Run(context.Background(), makeSeries(), nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestRun_Cancelled(t *testing.T) {
	e, err := NewEngine(frictionless(1000))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Run(ctx, makeSeries(10, 11, 12), sigs("B.S"))
	assert.True(t, errors.Is(err, context.Canceled))
}

type failingStrategy struct{}

func (failingStrategy) Signals(context.Context, *domain.PriceSeries) ([]domain.Signal, error) {
	return nil, errors.New("boom")
}

func (failingStrategy) Name() string { return "failing" }

func TestRunner_PersistsRunAndTrades(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewBacktestRunStore()
	trades := memory.NewTradeStore()
	started := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	runner, err := NewRunner(RunnerOptions{
		Config:     frictionless(1000),
		RunStore:   runs,
		TradeStore: trades,
		Now:        func() time.Time { return started },
		NewRunID:   func() string { return "run-1" },
	})
	require.NoError(t, err)

	series := makeSeries(10, 12, 11, 13, 9)
	res, err := runner.Run(ctx, series, StaticSignals{ID: "fixed", Series: sigs("B.SBS")})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "fixed", res.StrategyID)
	assert.True(t, res.StartedAt.Equal(started))
	require.Len(t, res.Trades, 2)
	assert.Equal(t, idhash.ComputeTradeID("run-1", "TEST", 0), res.Trades[0].ID)
	assert.Equal(t, "run-1", res.Trades[1].RunID)

	stored, err := runs.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.EquityCurve, stored.EquityCurve)

	storedTrades, err := trades.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Trades, storedTrades)
}

func TestRunner_StrategyError(t *testing.T) {
	runner, err := NewRunner(RunnerOptions{Config: frictionless(1000)})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), makeSeries(10, 11), failingStrategy{})
	assert.ErrorContains(t, err, "boom")
}

func TestStaticSignals_LengthMismatch(t *testing.T) {
	_, err := StaticSignals{Series: sigs("B")}.Signals(context.Background(), makeSeries(1, 2))
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Equal(t, "static", StaticSignals{}.Name())
}
