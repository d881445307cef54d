package signals

import (
	"context"
	"fmt"

	"github.com/markcheno/go-talib"

	"analog-lab/internal/backtest"
	"analog-lab/internal/domain"
)

// RSIGenerator buys when RSI falls to the oversold level and sells when it
// reaches the overbought level.
type RSIGenerator struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSIGenerator creates an RSI threshold generator.
func NewRSIGenerator(period int, oversold, overbought float64) *RSIGenerator {
	return &RSIGenerator{period: period, oversold: oversold, overbought: overbought}
}

// Name includes period and thresholds.
func (g *RSIGenerator) Name() string {
	return fmt.Sprintf("RSI_%d_%g_%g", g.period, g.oversold, g.overbought)
}

// Signals returns one label per bar. The first period bars are hold.
func (g *RSIGenerator) Signals(_ context.Context, series *domain.PriceSeries) ([]domain.Signal, error) {
	out := make([]domain.Signal, series.Len())
	for i := range out {
		out[i] = domain.SignalHold
	}
	if series.Len() <= g.period {
		return out, nil
	}

	rsi := talib.Rsi(series.Closes(), g.period)
	for i := g.period; i < len(out) && i < len(rsi); i++ {
		switch {
		case rsi[i] <= g.oversold:
			out[i] = domain.SignalBuy
		case rsi[i] >= g.overbought:
			out[i] = domain.SignalSell
		}
	}
	return out, nil
}

var _ backtest.Strategy = (*RSIGenerator)(nil)
