// Package regime tags a price series with a coarse market state.
package regime

import (
	"math"

	"github.com/cinar/indicator"

	"analog-lab/internal/domain"
)

// Options controls the classifier windows and thresholds.
type Options struct {
	FastPeriod       int     `mapstructure:"fast_period"`       // trend SMA, default 20
	SlowPeriod       int     `mapstructure:"slow_period"`       // trend SMA, default 60
	ShortATR         int     `mapstructure:"short_atr"`         // default 10
	LongATR          int     `mapstructure:"long_atr"`          // default 30
	MomentumLookback int     `mapstructure:"momentum_lookback"` // bars, default 20
	StrongMomentum   float64 `mapstructure:"strong_momentum"`   // default 0.10
	VolatilityRatio  float64 `mapstructure:"volatility_ratio"`  // short/long ATR above this is volatile, default 1.5
}

// DefaultOptions returns the standard classifier settings.
func DefaultOptions() Options {
	return Options{
		FastPeriod:       20,
		SlowPeriod:       60,
		ShortATR:         10,
		LongATR:          30,
		MomentumLookback: 20,
		StrongMomentum:   0.10,
		VolatilityRatio:  1.5,
	}
}

// Reading is the classifier output with the inputs that produced it.
type Reading struct {
	Regime          domain.Regime
	FastSMA         float64
	SlowSMA         float64
	Momentum        float64
	VolatilityRatio float64
}

// Classifier derives a regime from trend and volatility.
type Classifier struct {
	opts Options
}

// NewClassifier creates a classifier.
func NewClassifier(opts Options) *Classifier {
	return &Classifier{opts: opts}
}

// minBars is the history needed for every window.
func (c *Classifier) minBars() int {
	n := c.opts.SlowPeriod
	for _, p := range []int{c.opts.LongATR + 1, c.opts.MomentumLookback + 1} {
		if p > n {
			n = p
		}
	}
	return n
}

// Classify returns RegimeUnknown when the series is too short.
// Order of checks:
//  1. Short ATR well above long ATR is volatile
//  2. Fast SMA above slow SMA with price above fast is bullish, strong on momentum
//  3. The mirror image is bearish
//  4. Anything else is neutral
func (c *Classifier) Classify(series *domain.PriceSeries) Reading {
	if series.Len() < c.minBars() {
		return Reading{Regime: domain.RegimeUnknown}
	}

	closes := series.Closes()
	highs, lows := highsLows(series)
	last := closes[len(closes)-1]

	fast := lastValue(indicator.Sma(c.opts.FastPeriod, closes))
	slow := lastValue(indicator.Sma(c.opts.SlowPeriod, closes))
	_, shortATR := indicator.Atr(c.opts.ShortATR, highs, lows, closes)
	_, longATR := indicator.Atr(c.opts.LongATR, highs, lows, closes)

	past := closes[len(closes)-1-c.opts.MomentumLookback]
	r := Reading{
		FastSMA:  fast,
		SlowSMA:  slow,
		Momentum: (last - past) / past,
	}
	if l := lastValue(longATR); l > 0 {
		r.VolatilityRatio = lastValue(shortATR) / l
	}

	switch {
	case r.VolatilityRatio > c.opts.VolatilityRatio:
		r.Regime = domain.RegimeVolatile
	case fast > slow && last > fast:
		r.Regime = domain.RegimeBullish
		if r.Momentum >= c.opts.StrongMomentum {
			r.Regime = domain.RegimeStrongBullish
		}
	case fast < slow && last < fast:
		r.Regime = domain.RegimeBearish
		if r.Momentum <= -c.opts.StrongMomentum {
			r.Regime = domain.RegimeStrongBearish
		}
	default:
		r.Regime = domain.RegimeNeutral
	}

	return r
}

// highsLows falls back to the close where a bar carries no range.
func highsLows(series *domain.PriceSeries) ([]float64, []float64) {
	highs := make([]float64, series.Len())
	lows := make([]float64, series.Len())
	for i, b := range series.Bars {
		highs[i] = math.Max(b.High, b.Close)
		lows[i] = b.Low
		if lows[i] <= 0 || lows[i] > b.Close {
			lows[i] = b.Close
		}
	}
	return highs, lows
}

func lastValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
