// Package reporting renders backtest trades and strategy aggregates as CSV.
package reporting

import (
	"fmt"
	"strings"
	"time"

	"analog-lab/internal/domain"
)

// RenderTradesCSV renders a trade ledger as CSV string, one row per trade.
func RenderTradesCSV(trades []domain.Trade) string {
	var sb strings.Builder

	// Header
	sb.WriteString("id,run_id,entry_index,entry_date,entry_price,shares,entry_commission,")
	sb.WriteString("exit_index,exit_date,exit_price,exit_commission,exit_reason,pnl,return,holding_bars\n")

	// Rows
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,%.6f,%d,%.6f,%d,%s,%.6f,%.6f,%s,%.6f,%.6f,%d\n",
			t.ID,
			t.RunID,
			t.EntryIndex,
			t.EntryDate.Format(time.DateOnly),
			t.EntryPrice,
			t.Shares,
			t.EntryCommission,
			t.ExitIndex,
			t.ExitDate.Format(time.DateOnly),
			t.ExitPrice,
			t.ExitCommission,
			t.ExitReason,
			t.PnL,
			t.Return,
			t.HoldingBars(),
		))
	}

	return sb.String()
}

// RenderEquityCSV renders an equity curve aligned with the series bars.
func RenderEquityCSV(series *domain.PriceSeries, equity []float64) string {
	var sb strings.Builder

	sb.WriteString("date,close,equity\n")
	for i, e := range equity {
		if i >= series.Len() {
			break
		}
		b := series.Bars[i]
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f\n", b.Date.Format(time.DateOnly), b.Close, e))
	}

	return sb.String()
}

// RenderAggregatesCSV renders strategy aggregates as CSV string.
func RenderAggregatesCSV(aggs []*domain.StrategyAggregate) string {
	var sb strings.Builder

	// Header
	sb.WriteString("strategy_id,computed_at,runs,symbols,total_trades,")
	sb.WriteString("return_mean,return_median,return_p25,return_p75,return_stddev,return_min,return_max,")
	sb.WriteString("mean_sharpe,worst_drawdown,trade_win_rate,run_win_rate\n")

	// Rows
	for _, a := range aggs {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			a.StrategyID,
			a.ComputedAt.UTC().Format(time.RFC3339),
			a.Runs,
			a.Symbols,
			a.TotalTrades,
			a.ReturnMean,
			a.ReturnMedian,
			a.ReturnP25,
			a.ReturnP75,
			a.ReturnStddev,
			a.ReturnMin,
			a.ReturnMax,
			a.MeanSharpe,
			a.WorstDrawdown,
			a.TradeWinRate,
			a.RunWinRate,
		))
	}

	return sb.String()
}
