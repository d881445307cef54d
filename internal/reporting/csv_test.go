package reporting

import (
	"strings"
	"testing"
	"time"

	"analog-lab/internal/domain"
)

func TestRenderTradesCSV(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	trades := []domain.Trade{{
		ID:              "t1",
		RunID:           "r1",
		EntryIndex:      2,
		EntryDate:       day,
		EntryPrice:      100,
		Shares:          10,
		EntryCommission: 1,
		ExitIndex:       5,
		ExitDate:        day.AddDate(0, 0, 3),
		ExitPrice:       110,
		ExitCommission:  1.1,
		ExitReason:      domain.ExitReasonTakeProfit,
		PnL:             97.9,
		Return:          0.0969,
	}}

	out := RenderTradesCSV(trades)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,run_id,entry_index") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	want := "t1,r1,2,2024-03-01,100.000000,10,1.000000,5,2024-03-04,110.000000,1.100000,take-profit,97.900000,0.096900,3"
	if lines[1] != want {
		t.Errorf("row mismatch:\n got %s\nwant %s", lines[1], want)
	}
}

func TestRenderTradesCSV_Empty(t *testing.T) {
	out := RenderTradesCSV(nil)
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected header only, got %q", out)
	}
}

func TestRenderEquityCSV(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	series := &domain.PriceSeries{Bars: []domain.PriceBar{
		{Date: day, Close: 10},
		{Date: day.AddDate(0, 0, 1), Close: 11},
	}}

	out := RenderEquityCSV(series, []float64{1000, 1100})
	want := "date,close,equity\n2024-03-01,10.000000,1000.000000\n2024-03-02,11.000000,1100.000000\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRenderAggregatesCSV(t *testing.T) {
	aggs := []*domain.StrategyAggregate{
		{StrategyID: "ANALOG_h20", ComputedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Runs: 3, Symbols: 2, TotalTrades: 7, ReturnMean: 0.05},
		{StrategyID: "BUY_AND_HOLD", Runs: 2},
	}

	out := RenderAggregatesCSV(aggs)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if got := strings.Count(lines[0], ","); got != 15 {
		t.Errorf("expected 16 columns, got %d", got+1)
	}
	if !strings.HasPrefix(lines[1], "ANALOG_h20,2024-03-01T12:00:00Z,3,2,7,0.050000,") {
		t.Errorf("unexpected row: %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "BUY_AND_HOLD,") {
		t.Errorf("unexpected row: %s", lines[2])
	}
}
