package domain

import (
	"fmt"
	"time"
)

// BacktestConfig holds capital and friction parameters.
type BacktestConfig struct {
	InitialCapital float64  `json:"initial_capital" mapstructure:"initial_capital"`
	Commission     float64  `json:"commission" mapstructure:"commission"` // rate on notional, per side
	Slippage       float64  `json:"slippage" mapstructure:"slippage"`     // fraction of price, per side
	StopLoss       *float64 `json:"stop_loss,omitempty" mapstructure:"stop_loss"`
	TakeProfit     *float64 `json:"take_profit,omitempty" mapstructure:"take_profit"`
	CloseAtEnd     bool     `json:"close_at_end" mapstructure:"close_at_end"`
	RiskFreeDaily  float64  `json:"risk_free_daily" mapstructure:"risk_free_daily"`
}

// DefaultBacktestConfig returns the standard friction profile.
func DefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{
		InitialCapital: 100000,
		Commission:     0.0003,
		Slippage:       0.001,
	}
}

// Validate rejects non-positive capital and friction outside [0, 1).
func (c BacktestConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrInvalidParameter, c.InitialCapital)
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return fmt.Errorf("%w: commission must be in [0, 1), got %v", ErrInvalidParameter, c.Commission)
	}
	if c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("%w: slippage must be in [0, 1), got %v", ErrInvalidParameter, c.Slippage)
	}
	if c.StopLoss != nil && (*c.StopLoss <= 0 || *c.StopLoss >= 1) {
		return fmt.Errorf("%w: stop loss must be in (0, 1), got %v", ErrInvalidParameter, *c.StopLoss)
	}
	if c.TakeProfit != nil && *c.TakeProfit <= 0 {
		return fmt.Errorf("%w: take profit must be positive, got %v", ErrInvalidParameter, *c.TakeProfit)
	}
	return nil
}

// PerformanceReport summarizes an equity curve and its trades.
// ProfitFactor is nil when there are no losing trades.
type PerformanceReport struct {
	TotalReturn      float64  `json:"total_return"`
	AnnualizedReturn float64  `json:"annualized_return"`
	SharpeRatio      float64  `json:"sharpe_ratio"`
	SortinoRatio     float64  `json:"sortino_ratio"`
	CalmarRatio      float64  `json:"calmar_ratio"`
	MaxDrawdown      float64  `json:"max_drawdown"` // <= 0
	WinRate          float64  `json:"win_rate"`
	ProfitFactor     *float64 `json:"profit_factor"`

	TotalTrades          int     `json:"total_trades"`
	WinningTrades        int     `json:"winning_trades"`
	LosingTrades         int     `json:"losing_trades"`
	AvgWin               float64 `json:"avg_win"`
	AvgLoss              float64 `json:"avg_loss"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	AvgHoldingBars       float64 `json:"avg_holding_bars"`
	Bars                 int     `json:"bars"`
	FinalEquity          float64 `json:"final_equity"`
}

// BacktestResult is the full output of one backtest run.
type BacktestResult struct {
	RunID        string            `json:"run_id"`
	Symbol       string            `json:"symbol"`
	StrategyID   string            `json:"strategy_id"`
	Config       BacktestConfig    `json:"config"`
	StartedAt    time.Time         `json:"started_at"`
	EquityCurve  []float64         `json:"equity_curve"`
	DailyReturns []float64         `json:"daily_returns"`
	Trades       []Trade           `json:"trades"`
	OpenPosition bool              `json:"open_position"`
	Report       PerformanceReport `json:"report"`
}
