package decision

import (
	"fmt"
	"strings"

	"analog-lab/internal/domain"
	"analog-lab/internal/stats"
)

// Sizer converts distribution statistics into position advice.
type Sizer struct {
	rules []SizingRule
	cfg   SizingConfig
}

// NewSizer creates a sizer. A nil rules slice uses DefaultRules.
func NewSizer(cfg SizingConfig, rules []SizingRule) *Sizer {
	if rules == nil {
		rules = DefaultRules
	}
	return &Sizer{rules: rules, cfg: cfg}
}

// Size produces advice. Steps:
//  1. Pick the first rule matching (up probability, confidence), else neutral
//  2. Blend with half-Kelly when mean > 0 and std > 0
//  3. Scale by the regime factor
//  4. Clamp to [MinPosition, MaxPosition]
//  5. Downgrade the label when the regime contradicts it
func (s *Sizer) Size(st domain.DistributionStats, confidence float64, regime domain.Regime) domain.PositionAdvice {
	rule, matched := s.match(st.UpProbability, confidence)

	signal := domain.SignalNeutral
	base := NeutralBase
	ruleName := "no rule"
	if matched {
		signal = rule.Signal
		base = rule.Base
		ruleName = rule.Name
	}

	position := base
	kelly := 0.0
	if st.MeanReturn > 0 && st.Std > 0 {
		kelly = stats.Clamp(st.MeanReturn/(st.Std*st.Std), 0, 1) * s.cfg.KellyFraction
		position = s.cfg.BaseWeight*base + s.cfg.KellyWeight*kelly
	}

	factor := stats.Clamp(RegimeFactor(regime), MinRegimeFactor, MaxRegimeFactor)
	position = stats.Clamp(position*factor, s.cfg.MinPosition, s.cfg.MaxPosition)

	signal = adjustForRegime(signal, regime)

	return domain.PositionAdvice{
		Signal:              signal,
		RecommendedPosition: position,
		BasePosition:        base,
		KellyFraction:       kelly,
		RegimeFactor:        factor,
		Regime:              regime,
		Description:         describe(ruleName, st, confidence, kelly, regime, position),
	}
}

func (s *Sizer) match(up, confidence float64) (SizingRule, bool) {
	for _, r := range s.rules {
		if r.Matches(up, confidence) {
			return r, true
		}
	}
	return SizingRule{}, false
}

// adjustForRegime softens a directional label that runs against the regime.
func adjustForRegime(signal domain.Signal, regime domain.Regime) domain.Signal {
	switch {
	case signal.IsEntry() && regime.IsBearish():
		return domain.SignalCautiousBuy
	case signal.IsExit() && regime.IsBullish():
		return domain.SignalCautiousSell
	case signal == domain.SignalStrongBuy && regime == domain.RegimeVolatile:
		return domain.SignalBuy
	case signal == domain.SignalStrongSell && regime == domain.RegimeVolatile:
		return domain.SignalSell
	}
	return signal
}

func describe(rule string, st domain.DistributionStats, confidence, kelly float64, regime domain.Regime, position float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: up %.1f%%, down %.1f%% over %d samples, confidence %.2f",
		rule, st.UpProbability*100, st.DownProbability*100, st.SampleSize, confidence)
	if kelly > 0 {
		fmt.Fprintf(&b, ", half-kelly %.2f", kelly)
	}
	if regime != domain.RegimeUnknown {
		fmt.Fprintf(&b, ", regime %s", regime)
	}
	fmt.Fprintf(&b, " -> position %.0f%%", position*100)
	return b.String()
}
