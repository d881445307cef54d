package backtest

import (
	"context"
	"fmt"

	"analog-lab/internal/domain"
)

// Strategy produces one signal per bar of a series.
type Strategy interface {
	// Signals returns a slice aligned 1:1 with series.Bars. The label at bar t
	// may only depend on bars [0..t].
	Signals(ctx context.Context, series *domain.PriceSeries) ([]domain.Signal, error)

	// Name returns the strategy identifier (includes parameters).
	Name() string
}

// StaticSignals replays a precomputed signal series.
type StaticSignals struct {
	ID     string
	Series []domain.Signal
}

// Signals returns the stored series, checking it covers every bar.
func (s StaticSignals) Signals(_ context.Context, series *domain.PriceSeries) ([]domain.Signal, error) {
	if len(s.Series) != series.Len() {
		return nil, fmt.Errorf("%w: %d signals for %d bars", domain.ErrInvalidParameter, len(s.Series), series.Len())
	}
	out := make([]domain.Signal, len(s.Series))
	copy(out, s.Series)
	return out, nil
}

// Name returns the configured identifier, "static" by default.
func (s StaticSignals) Name() string {
	if s.ID == "" {
		return "static"
	}
	return s.ID
}

var _ Strategy = StaticSignals{}
