package domain

import (
	"fmt"
	"time"
)

// AnalysisConfig parameterizes one analog analysis.
type AnalysisConfig struct {
	Tolerance      float64  `json:"tolerance" mapstructure:"tolerance"`
	ExclusionDays  int      `json:"exclusion_days" mapstructure:"exclusion_days"`
	Horizons       []int    `json:"horizons" mapstructure:"horizons"`
	RiskFreeDaily  float64  `json:"risk_free_daily" mapstructure:"risk_free_daily"`
	BreachLevel    float64  `json:"breach_level" mapstructure:"breach_level"` // drawdown threshold, negative
	ReferencePrice *float64 `json:"reference_price,omitempty" mapstructure:"-"`
}

// DefaultAnalysisConfig returns the standard analysis parameters.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Tolerance:     0.05,
		ExclusionDays: 5,
		Horizons:      []int{5, 10, 20},
		RiskFreeDaily: 0,
		BreachLevel:   -0.05,
	}
}

// Validate rejects parameters the matcher and projector cannot use.
func (c AnalysisConfig) Validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive, got %v", ErrInvalidParameter, c.Tolerance)
	}
	if c.ExclusionDays < 0 {
		return fmt.Errorf("%w: exclusion window must not be negative, got %d", ErrInvalidParameter, c.ExclusionDays)
	}
	if len(c.Horizons) == 0 {
		return fmt.Errorf("%w: at least one horizon is required", ErrInvalidParameter)
	}
	for _, h := range c.Horizons {
		if h <= 0 {
			return fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidParameter, h)
		}
	}
	if c.ReferencePrice != nil && *c.ReferencePrice <= 0 {
		return fmt.Errorf("%w: reference price must be positive, got %v", ErrInvalidParameter, *c.ReferencePrice)
	}
	if c.BreachLevel > 0 {
		return fmt.Errorf("%w: breach level must not be positive, got %v", ErrInvalidParameter, c.BreachLevel)
	}
	return nil
}

// AnalysisResult is the estimate for one (symbol, horizon) pair.
// Advice is attached only when sizing was requested.
type AnalysisResult struct {
	ID             string            `json:"id"` // deterministic hash
	Symbol         string            `json:"symbol"`
	Period         string            `json:"period"`
	Horizon        int               `json:"horizon"`
	AsOf           time.Time         `json:"as_of"` // date of the last bar used
	ReferencePrice float64           `json:"reference_price"`
	Tolerance      float64           `json:"tolerance"`
	MatchCount     int               `json:"match_count"`
	Stats          DistributionStats `json:"stats"`
	Advice         *PositionAdvice   `json:"advice,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
