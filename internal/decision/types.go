// Package decision scores confidence in a forward-return distribution and
// turns it into a position-size recommendation.
package decision

import (
	"fmt"

	"analog-lab/internal/domain"
)

// ConfidenceWeights blends sample-size adequacy with directional consistency.
type ConfidenceWeights struct {
	SampleSize  float64 `mapstructure:"sample_size" json:"sample_size"`
	Consistency float64 `mapstructure:"consistency" json:"consistency"`
	// Inflection is the sample size at which the size term reaches 0.5.
	Inflection float64 `mapstructure:"inflection" json:"inflection"`
	Scale      float64 `mapstructure:"scale" json:"scale"`
}

// DefaultConfidenceWeights returns 0.6 size / 0.4 consistency around n=20.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{SampleSize: 0.6, Consistency: 0.4, Inflection: 20, Scale: 10}
}

// Validate rejects negative weights and a non-positive scale.
func (w ConfidenceWeights) Validate() error {
	if w.SampleSize < 0 || w.Consistency < 0 {
		return fmt.Errorf("%w: confidence weights must not be negative", domain.ErrInvalidParameter)
	}
	if w.Scale <= 0 {
		return fmt.Errorf("%w: confidence scale must be positive, got %v", domain.ErrInvalidParameter, w.Scale)
	}
	return nil
}

// SizingConfig controls the Kelly blend and clamp bounds.
type SizingConfig struct {
	BaseWeight    float64 `mapstructure:"base_weight" json:"base_weight"`
	KellyWeight   float64 `mapstructure:"kelly_weight" json:"kelly_weight"`
	KellyFraction float64 `mapstructure:"kelly_fraction" json:"kelly_fraction"`
	MinPosition   float64 `mapstructure:"min_position" json:"min_position"`
	MaxPosition   float64 `mapstructure:"max_position" json:"max_position"`
}

// DefaultSizingConfig returns the 0.7/0.3 half-Kelly blend clamped to [0.1, 0.9].
func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		BaseWeight:    0.7,
		KellyWeight:   0.3,
		KellyFraction: 0.5,
		MinPosition:   PositionFloor,
		MaxPosition:   PositionCeiling,
	}
}

// Recommended positions never leave [PositionFloor, PositionCeiling].
const (
	PositionFloor   = 0.1
	PositionCeiling = 0.9
)

// Validate checks weight signs and that the clamp bounds are ordered and lie
// within [PositionFloor, PositionCeiling].
func (c SizingConfig) Validate() error {
	if c.BaseWeight < 0 || c.KellyWeight < 0 || c.KellyFraction < 0 {
		return fmt.Errorf("%w: sizing weights must not be negative", domain.ErrInvalidParameter)
	}
	if c.MinPosition < PositionFloor || c.MaxPosition > PositionCeiling || c.MinPosition > c.MaxPosition {
		return fmt.Errorf("%w: position bounds [%v, %v] must be ordered within [%v, %v]",
			domain.ErrInvalidParameter, c.MinPosition, c.MaxPosition, PositionFloor, PositionCeiling)
	}
	return nil
}

// SizingRule is one row of the signal table. A rule matches when the up
// probability is on the right side of UpThreshold and confidence reaches
// MinConfidence.
type SizingRule struct {
	Name          string
	Signal        domain.Signal
	UpThreshold   float64
	Below         bool // match up <= threshold instead of up >= threshold
	MinConfidence float64
	Base          float64
}

// Matches evaluates the rule.
func (r SizingRule) Matches(up, confidence float64) bool {
	if confidence < r.MinConfidence {
		return false
	}
	if r.Below {
		return up <= r.UpThreshold
	}
	return up >= r.UpThreshold
}

// DefaultRules is the signal table, evaluated top to bottom.
var DefaultRules = []SizingRule{
	{Name: "strong upside", Signal: domain.SignalStrongBuy, UpThreshold: 0.75, MinConfidence: 0.8, Base: 0.80},
	{Name: "upside", Signal: domain.SignalBuy, UpThreshold: 0.65, MinConfidence: 0.7, Base: 0.65},
	{Name: "downside", Signal: domain.SignalSell, UpThreshold: 0.35, Below: true, MinConfidence: 0.7, Base: 0.30},
	{Name: "strong downside", Signal: domain.SignalStrongSell, UpThreshold: 0.25, Below: true, MinConfidence: 0.8, Base: 0.20},
}

// NeutralBase is the base position when no rule matches.
const NeutralBase = 0.50

// Regime factor bounds.
const (
	MinRegimeFactor = 0.6
	MaxRegimeFactor = 1.2
)

// RegimeFactor maps a regime tag to its position multiplier.
func RegimeFactor(r domain.Regime) float64 {
	switch r {
	case domain.RegimeStrongBullish:
		return 1.2
	case domain.RegimeBullish:
		return 1.1
	case domain.RegimeVolatile:
		return 0.8
	case domain.RegimeBearish:
		return 0.7
	case domain.RegimeStrongBearish:
		return 0.6
	default:
		return 1.0
	}
}
