package domain

import "time"

// Exit reason codes.
const (
	ExitReasonSignal     = "signal"
	ExitReasonStopLoss   = "stop-loss"
	ExitReasonTakeProfit = "take-profit"
	ExitReasonEndOfData  = "end-of-data"
)

// Trade is one closed round trip in a backtest.
type Trade struct {
	ID    string `json:"id"` // deterministic hash
	RunID string `json:"run_id"`

	// Entry
	EntryIndex      int       `json:"entry_index"`
	EntryDate       time.Time `json:"entry_date"`
	EntryPrice      float64   `json:"entry_price"` // fill price after slippage
	Shares          int64     `json:"shares"`
	EntryCommission float64   `json:"entry_commission"`

	// Exit
	ExitIndex      int       `json:"exit_index"`
	ExitDate       time.Time `json:"exit_date"`
	ExitPrice      float64   `json:"exit_price"` // fill price after slippage
	ExitCommission float64   `json:"exit_commission"`
	ExitReason     string    `json:"exit_reason"`

	// Outcome, net of both commissions
	PnL    float64 `json:"pnl"`
	Return float64 `json:"return"` // pnl / total entry outlay
}

// IsWin reports whether the trade made money after costs.
func (t *Trade) IsWin() bool {
	return t.PnL > 0
}

// HoldingBars is the number of bars between entry and exit.
func (t *Trade) HoldingBars() int {
	return t.ExitIndex - t.EntryIndex
}
