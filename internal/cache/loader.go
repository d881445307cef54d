package cache

import (
	"context"
	"fmt"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// StoreLoader loads series from a PriceBarStore. The key's period is counted
// back from the symbol's latest stored bar, not from the wall clock.
func StoreLoader(store storage.PriceBarStore) Loader {
	return func(ctx context.Context, key Key) (*domain.PriceSeries, error) {
		key = key.normalize()

		full, err := store.GetSeries(ctx, key.Symbol)
		if err != nil {
			return nil, err
		}
		if full.Len() == 0 {
			return nil, fmt.Errorf("%w: no stored bars for %s", domain.ErrInsufficientData, key.Symbol)
		}

		from, err := domain.PeriodStart(key.Period, full.Last().Date)
		if err != nil {
			return nil, err
		}

		bars := full.Bars
		if !from.IsZero() {
			i := 0
			for i < len(bars) && bars[i].Date.Before(from) {
				i++
			}
			bars = bars[i:]
		}

		period := key.Period
		if period == "" {
			period = domain.PeriodMax
		}
		return &domain.PriceSeries{Symbol: key.Symbol, Period: period, Bars: bars}, nil
	}
}
