package domain

// StrategyConfig selects a signal generator and its parameters.
// Only the fields of the chosen type are read.
type StrategyConfig struct {
	Type string `json:"type" mapstructure:"type"` // ANALOG | RSI | BUY_AND_HOLD

	// ANALOG parameters
	Horizon *int `json:"horizon,omitempty" mapstructure:"horizon"`
	Warmup  *int `json:"warmup,omitempty" mapstructure:"warmup"` // bars held flat before the first signal

	// RSI parameters
	RSIPeriod  *int     `json:"rsi_period,omitempty" mapstructure:"rsi_period"`
	Oversold   *float64 `json:"oversold,omitempty" mapstructure:"oversold"`
	Overbought *float64 `json:"overbought,omitempty" mapstructure:"overbought"`
}

// Strategy type constants
const (
	StrategyTypeAnalog     = "ANALOG"
	StrategyTypeRSI        = "RSI"
	StrategyTypeBuyAndHold = "BUY_AND_HOLD"
)
