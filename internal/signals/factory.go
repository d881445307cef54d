package signals

import (
	"errors"
	"fmt"

	"analog-lab/internal/analysis"
	"analog-lab/internal/backtest"
	"analog-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrMissingHorizon      = errors.New("ANALOG requires Horizon")
	ErrMissingAnalyzer     = errors.New("ANALOG requires an analyzer with a sizer")
	ErrHorizonNotAnalyzed  = errors.New("ANALOG horizon is not in the analyzer horizons")
	ErrMissingRSIPeriod    = errors.New("RSI requires RSIPeriod")
	ErrMissingThresholds   = errors.New("RSI requires Oversold and Overbought")
	ErrInvalidThresholds   = errors.New("RSI thresholds must satisfy 0 <= oversold < overbought <= 100")
)

// FromConfig creates a Strategy from domain.StrategyConfig.
// analyzer is only used by ANALOG and may be nil otherwise.
func FromConfig(cfg domain.StrategyConfig, analyzer *analysis.Analyzer) (backtest.Strategy, error) {
	switch cfg.Type {
	case domain.StrategyTypeAnalog:
		return fromAnalogConfig(cfg, analyzer)
	case domain.StrategyTypeRSI:
		return fromRSIConfig(cfg)
	case domain.StrategyTypeBuyAndHold:
		return BuyAndHold{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategyType, cfg.Type)
	}
}

// fromAnalogConfig creates AnalogGenerator from config.
func fromAnalogConfig(cfg domain.StrategyConfig, analyzer *analysis.Analyzer) (*AnalogGenerator, error) {
	if cfg.Horizon == nil {
		return nil, ErrMissingHorizon
	}
	if analyzer == nil {
		return nil, ErrMissingAnalyzer
	}

	found := false
	for _, h := range analyzer.Config().Horizons {
		if h == *cfg.Horizon {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrHorizonNotAnalyzed, *cfg.Horizon)
	}

	warmup := 0
	if cfg.Warmup != nil {
		warmup = *cfg.Warmup
	}
	return NewAnalogGenerator(analyzer, *cfg.Horizon, warmup), nil
}

// fromRSIConfig creates RSIGenerator from config.
func fromRSIConfig(cfg domain.StrategyConfig) (*RSIGenerator, error) {
	if cfg.RSIPeriod == nil || *cfg.RSIPeriod < 2 {
		return nil, ErrMissingRSIPeriod
	}
	if cfg.Oversold == nil || cfg.Overbought == nil {
		return nil, ErrMissingThresholds
	}
	if *cfg.Oversold < 0 || *cfg.Overbought > 100 || *cfg.Oversold >= *cfg.Overbought {
		return nil, ErrInvalidThresholds
	}

	return NewRSIGenerator(*cfg.RSIPeriod, *cfg.Oversold, *cfg.Overbought), nil
}
