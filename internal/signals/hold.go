package signals

import (
	"context"

	"analog-lab/internal/backtest"
	"analog-lab/internal/domain"
)

// BuyAndHold buys on the first bar and never sells. It is the baseline every
// other strategy is compared with.
type BuyAndHold struct{}

// Name returns BUY_AND_HOLD.
func (BuyAndHold) Name() string { return domain.StrategyTypeBuyAndHold }

// Signals returns buy followed by holds.
func (BuyAndHold) Signals(_ context.Context, series *domain.PriceSeries) ([]domain.Signal, error) {
	out := make([]domain.Signal, series.Len())
	for i := range out {
		out[i] = domain.SignalHold
	}
	if len(out) > 0 {
		out[0] = domain.SignalBuy
	}
	return out, nil
}

var _ backtest.Strategy = BuyAndHold{}
