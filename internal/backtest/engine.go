// Package backtest replays a signal series over a price series with a
// long-only FLAT/LONG state machine and realistic friction.
package backtest

import (
	"context"
	"fmt"

	"analog-lab/internal/domain"
	"analog-lab/internal/metrics"
)

// Engine runs backtests for one configuration. It holds no state between runs.
type Engine struct {
	cfg domain.BacktestConfig
}

// NewEngine validates cfg and creates an engine.
func NewEngine(cfg domain.BacktestConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() domain.BacktestConfig {
	return e.cfg
}

// Run replays signals over series and returns the equity curve, the closed
// trades and the performance report. Trades carry no ids; Runner assigns them.
//
// Per bar, in order:
//  1. If LONG with stop-loss/take-profit configured, a breach of either on the
//     close overrides the bar's signal with a forced exit (stop-loss first).
//  2. With CloseAtEnd, an open position is closed on the last bar and no new
//     position is opened there.
//  3. FLAT + buy/strong-buy opens a position at the close. Buy while LONG is a no-op.
//  4. LONG + sell/strong-sell or a forced exit closes the position at the close.
//  5. Equity = cash + shares*close is appended, with the bar's return against
//     the previous equity (initial capital for the first bar).
//
// ctx is checked once per bar.
func (e *Engine) Run(ctx context.Context, series *domain.PriceSeries, signals []domain.Signal) (*domain.BacktestResult, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if len(signals) != series.Len() {
		return nil, fmt.Errorf("%w: %d signals for %d bars", domain.ErrInvalidParameter, len(signals), series.Len())
	}

	n := series.Len()
	book := newLedger(e.cfg)
	equity := make([]float64, 0, n)
	returns := make([]float64, 0, n)
	var trades []domain.Trade
	prev := e.cfg.InitialCapital

	for i, bar := range series.Bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		signal := signals[i].Tradable()
		last := i == n-1
		exitReason := ""

		// 1. Forced exits
		if book.long() {
			exitReason = e.forcedExit(book.unrealized(bar.Close))
		}

		// 2. End of data
		if e.cfg.CloseAtEnd && last {
			if book.long() && exitReason == "" {
				exitReason = domain.ExitReasonEndOfData
			}
			if signal.IsEntry() {
				signal = domain.SignalHold
			}
		}
		if exitReason == "" && book.long() && signal.IsExit() {
			exitReason = domain.ExitReasonSignal
		}

		// 3. Entry
		if !book.long() && exitReason == "" && signal.IsEntry() {
			book.enter(i, bar.Date, bar.Close)
		}

		// 4. Exit
		if book.long() && exitReason != "" {
			trades = append(trades, book.exit(i, bar.Date, bar.Close, exitReason))
		}

		// 5. Mark to market
		eq := book.equity(bar.Close).InexactFloat64()
		equity = append(equity, eq)
		if prev != 0 {
			returns = append(returns, eq/prev-1)
		} else {
			returns = append(returns, 0)
		}
		prev = eq
	}

	return &domain.BacktestResult{
		Symbol:       series.Symbol,
		Config:       e.cfg,
		EquityCurve:  equity,
		DailyReturns: returns,
		Trades:       trades,
		OpenPosition: book.long(),
		Report:       metrics.Evaluate(equity, returns, trades, e.cfg.InitialCapital, e.cfg.RiskFreeDaily),
	}, nil
}

// forcedExit returns the exit reason triggered by an unrealized return, or "".
func (e *Engine) forcedExit(unrealized float64) string {
	if e.cfg.StopLoss != nil && unrealized <= -*e.cfg.StopLoss {
		return domain.ExitReasonStopLoss
	}
	if e.cfg.TakeProfit != nil && unrealized >= *e.cfg.TakeProfit {
		return domain.ExitReasonTakeProfit
	}
	return ""
}
