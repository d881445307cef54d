// Package signals generates per-bar signal series for the backtest engine.
// Every generator labels bar t using bars [0..t] only.
package signals

import (
	"context"
	"errors"
	"fmt"

	"analog-lab/internal/analysis"
	"analog-lab/internal/backtest"
	"analog-lab/internal/domain"
)

// AnalogGenerator replays the analog advice walk-forward: at each bar it
// analyses the series truncated to that bar and emits the advice label.
// Labels the engine does not trade (neutral, cautious-*) become hold.
type AnalogGenerator struct {
	analyzer *analysis.Analyzer
	horizon  int
	warmup   int
}

// NewAnalogGenerator creates a generator reading the given horizon's advice.
// The analyzer must be configured with a sizer. Only the generator's own
// horizon is computed, so longer configured horizons never hold it back.
// Bars before warmup are always hold.
func NewAnalogGenerator(analyzer *analysis.Analyzer, horizon, warmup int) *AnalogGenerator {
	return &AnalogGenerator{analyzer: analyzer.ForHorizon(horizon), horizon: horizon, warmup: warmup}
}

// Name includes the horizon.
func (g *AnalogGenerator) Name() string {
	return fmt.Sprintf("ANALOG_h%d", g.horizon)
}

// Signals returns one label per bar.
// Bars without enough history for the horizon are hold.
func (g *AnalogGenerator) Signals(ctx context.Context, series *domain.PriceSeries) ([]domain.Signal, error) {
	out := make([]domain.Signal, series.Len())
	for t := range out {
		out[t] = domain.SignalHold
		if t < g.warmup {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := g.analyzer.Compute(series.Head(t + 1))
		if errors.Is(err, domain.ErrInsufficientData) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("bar %d: %w", t, err)
		}

		for _, res := range results {
			if res.Horizon == g.horizon && res.Advice != nil {
				out[t] = res.Advice.Signal.Tradable()
				break
			}
		}
	}
	return out, nil
}

var _ backtest.Strategy = (*AnalogGenerator)(nil)
