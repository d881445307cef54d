package domain

// Regime is a coarse market-state tag used to scale position size.
type Regime string

// Regime tags.
const (
	RegimeStrongBullish Regime = "strong-bullish"
	RegimeBullish       Regime = "bullish"
	RegimeNeutral       Regime = "neutral"
	RegimeVolatile      Regime = "volatile"
	RegimeBearish       Regime = "bearish"
	RegimeStrongBearish Regime = "strong-bearish"
	RegimeUnknown       Regime = ""
)

// IsBullish reports whether the regime leans up.
func (r Regime) IsBullish() bool {
	return r == RegimeBullish || r == RegimeStrongBullish
}

// IsBearish reports whether the regime leans down.
func (r Regime) IsBearish() bool {
	return r == RegimeBearish || r == RegimeStrongBearish
}

// PositionAdvice is the sizing recommendation for one horizon.
type PositionAdvice struct {
	Signal              Signal  `json:"signal"`
	RecommendedPosition float64 `json:"recommended_position"` // fraction of capital, [0.1, 0.9]
	BasePosition        float64 `json:"base_position"`
	KellyFraction       float64 `json:"kelly_fraction"` // half-Kelly, 0 when not applied
	RegimeFactor        float64 `json:"regime_factor"`
	Regime              Regime  `json:"regime,omitempty"`
	Description         string  `json:"description"`
}
