package domain

// DistributionStats summarizes forward returns for one horizon.
// Insufficient marks a zero-sample result; every numeric field is then zero.
type DistributionStats struct {
	Horizon      int  `json:"horizon"`
	SampleSize   int  `json:"sample_size"`
	Insufficient bool `json:"insufficient"`

	// Direction
	UpProbability   float64 `json:"up_probability"`
	DownProbability float64 `json:"down_probability"`

	// Distribution
	MeanReturn   float64 `json:"mean_return"`
	MedianReturn float64 `json:"median_return"`
	Std          float64 `json:"std"`
	Percentile25 float64 `json:"percentile_25"`
	Percentile75 float64 `json:"percentile_75"`
	Skewness     float64 `json:"skewness"`
	Kurtosis     float64 `json:"kurtosis"` // excess

	// Risk
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	VaR95        float64 `json:"var_95"`
	CVaR95       float64 `json:"cvar_95"`

	// Drawdown over the holding window
	MaxDrawdown               float64 `json:"max_drawdown"`
	AvgDrawdown               float64 `json:"avg_drawdown"`
	DrawdownBreachProbability float64 `json:"drawdown_breach_probability"`
	CalmarRatio               float64 `json:"calmar_ratio"`

	// Confidence is attached by the scorer when requested.
	Confidence float64 `json:"confidence"`
}
