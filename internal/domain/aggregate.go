package domain

import "time"

// StrategyAggregate summarizes every backtest run of one strategy across symbols.
type StrategyAggregate struct {
	StrategyID string    `json:"strategy_id"`
	ComputedAt time.Time `json:"computed_at"`

	// Counts
	Runs        int `json:"runs"`
	Symbols     int `json:"symbols"`
	TotalTrades int `json:"total_trades"`

	// Run-level total return distribution
	ReturnMean   float64 `json:"return_mean"`
	ReturnMedian float64 `json:"return_median"`
	ReturnP25    float64 `json:"return_p25"`
	ReturnP75    float64 `json:"return_p75"`
	ReturnStddev float64 `json:"return_stddev"`
	ReturnMin    float64 `json:"return_min"`
	ReturnMax    float64 `json:"return_max"`

	// Risk
	MeanSharpe    float64 `json:"mean_sharpe"`
	WorstDrawdown float64 `json:"worst_drawdown"`
	TradeWinRate  float64 `json:"trade_win_rate"` // winning trades / all trades
	RunWinRate    float64 `json:"run_win_rate"`   // runs with positive total return / runs
}
