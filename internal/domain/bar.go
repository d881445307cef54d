package domain

import (
	"fmt"
	"time"
)

// PriceBar is one period of OHLCV data.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered run of bars for one symbol.
// Bars are strictly ascending by date; callers treat the slice as read-only.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Period string     `json:"period"` // e.g. "1d", "3y"
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar. Callers must check Len first.
func (s *PriceSeries) Last() PriceBar {
	return s.Bars[len(s.Bars)-1]
}

// Closes returns the close prices in bar order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Validate checks ordering and price sanity.
// An empty series is ErrInsufficientData, not an invalid one.
func (s *PriceSeries) Validate() error {
	if s.Len() == 0 {
		return fmt.Errorf("%w: series %q has no bars", ErrInsufficientData, seriesName(s))
	}
	for i, b := range s.Bars {
		if b.Close <= 0 {
			return fmt.Errorf("%w: bar %d (%s) has non-positive close %v",
				ErrInvalidParameter, i, b.Date.Format(time.DateOnly), b.Close)
		}
		if i > 0 && !b.Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("%w: bar %d (%s) is not after previous bar",
				ErrInvalidParameter, i, b.Date.Format(time.DateOnly))
		}
	}
	return nil
}

// Head returns a view of the first n bars.
func (s *PriceSeries) Head(n int) *PriceSeries {
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	return &PriceSeries{Symbol: s.Symbol, Period: s.Period, Bars: s.Bars[:n:n]}
}

func seriesName(s *PriceSeries) string {
	if s == nil {
		return ""
	}
	return s.Symbol
}
