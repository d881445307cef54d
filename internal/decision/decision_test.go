package decision

import (
	"errors"
	"math"
	"strings"
	"testing"

	"analog-lab/internal/domain"
)

func makeStats(n int, up, down, mean, std float64) domain.DistributionStats {
	return domain.DistributionStats{
		SampleSize:      n,
		UpProbability:   up,
		DownProbability: down,
		MeanReturn:      mean,
		Std:             std,
	}
}

func TestScoreConfidence_ZeroSamples(t *testing.T) {
	got := ScoreConfidence(domain.DistributionStats{Insufficient: true}, DefaultConfidenceWeights())
	if got != 0 {
		t.Errorf("expected 0 confidence for empty sample, got %f", got)
	}
}

func TestScoreConfidence_AtInflection(t *testing.T) {
	// n=20 gives sigmoid(0)=0.5; a 50/50 split adds nothing.
	got := ScoreConfidence(makeStats(20, 0.5, 0.5, 0, 0), DefaultConfidenceWeights())
	if math.Abs(got-0.3) > 1e-12 {
		t.Errorf("expected 0.3, got %f", got)
	}
}

func TestScoreConfidence_Consistency(t *testing.T) {
	// up=0.8 gives consistency (0.8-0.5)/0.5 = 0.6
	got := ScoreConfidence(makeStats(20, 0.8, 0.2, 0, 0), DefaultConfidenceWeights())
	want := 0.6*0.5 + 0.4*0.6
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, got)
	}

	// Downward consistency counts the same.
	got = ScoreConfidence(makeStats(20, 0.2, 0.8, 0, 0), DefaultConfidenceWeights())
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected symmetric %f, got %f", want, got)
	}
}

func TestScoreConfidence_Bounded(t *testing.T) {
	w := ConfidenceWeights{SampleSize: 1, Consistency: 1, Inflection: 20, Scale: 10}
	for _, n := range []int{1, 5, 20, 100, 10000} {
		for _, up := range []float64{0, 0.3, 0.5, 0.9, 1} {
			got := ScoreConfidence(makeStats(n, up, 1-up, 0, 0), w)
			if got < 0 || got > 1 {
				t.Errorf("n=%d up=%v: confidence %f out of [0,1]", n, up, got)
			}
		}
	}
}

func TestSizer_StrongBuyWithKelly(t *testing.T) {
	sizer := NewSizer(DefaultSizingConfig(), nil)

	advice := sizer.Size(makeStats(60, 0.80, 0.20, 0.02, 0.04), 0.85, domain.RegimeUnknown)

	if advice.Signal != domain.SignalStrongBuy {
		t.Errorf("expected strong-buy, got %s", advice.Signal)
	}
	if advice.BasePosition != 0.80 {
		t.Errorf("expected base 0.80, got %f", advice.BasePosition)
	}
	// kelly = clamp(0.02/0.0016, 0, 1) * 0.5 = 0.5; 0.7*0.8 + 0.3*0.5 = 0.71
	if math.Abs(advice.KellyFraction-0.5) > 1e-12 {
		t.Errorf("expected kelly 0.5, got %f", advice.KellyFraction)
	}
	if math.Abs(advice.RecommendedPosition-0.71) > 1e-12 {
		t.Errorf("expected position 0.71, got %f", advice.RecommendedPosition)
	}
	if !strings.Contains(advice.Description, "strong upside") {
		t.Errorf("description missing rule name: %q", advice.Description)
	}
}

func TestSizer_NoKellyWhenMeanNotPositive(t *testing.T) {
	sizer := NewSizer(DefaultSizingConfig(), nil)

	advice := sizer.Size(makeStats(60, 0.30, 0.70, -0.01, 0.03), 0.75, domain.RegimeUnknown)

	if advice.Signal != domain.SignalSell {
		t.Errorf("expected sell, got %s", advice.Signal)
	}
	if advice.KellyFraction != 0 {
		t.Errorf("expected no kelly, got %f", advice.KellyFraction)
	}
	if math.Abs(advice.RecommendedPosition-0.30) > 1e-12 {
		t.Errorf("expected 0.30, got %f", advice.RecommendedPosition)
	}
}

func TestSizer_TableOrder(t *testing.T) {
	sizer := NewSizer(DefaultSizingConfig(), nil)

	tests := []struct {
		name       string
		up         float64
		confidence float64
		want       domain.Signal
		wantBase   float64
	}{
		{"buy", 0.70, 0.75, domain.SignalBuy, 0.65},
		{"strong buy needs confidence", 0.80, 0.75, domain.SignalBuy, 0.65},
		{"low confidence is neutral", 0.90, 0.5, domain.SignalNeutral, 0.50},
		{"sell row wins before strong sell", 0.20, 0.85, domain.SignalSell, 0.30},
		{"middle is neutral", 0.50, 0.95, domain.SignalNeutral, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advice := sizer.Size(makeStats(50, tt.up, 1-tt.up, 0, 0), tt.confidence, domain.RegimeUnknown)
			if advice.Signal != tt.want {
				t.Errorf("expected %s, got %s", tt.want, advice.Signal)
			}
			if advice.BasePosition != tt.wantBase {
				t.Errorf("expected base %f, got %f", tt.wantBase, advice.BasePosition)
			}
		})
	}
}

func TestSizer_StrongSellReachableWithCustomRules(t *testing.T) {
	rules := []SizingRule{DefaultRules[3], DefaultRules[2]}
	sizer := NewSizer(DefaultSizingConfig(), rules)

	advice := sizer.Size(makeStats(50, 0.20, 0.80, 0, 0), 0.85, domain.RegimeUnknown)
	if advice.Signal != domain.SignalStrongSell {
		t.Errorf("expected strong-sell, got %s", advice.Signal)
	}
	if math.Abs(advice.RecommendedPosition-0.20) > 1e-12 {
		t.Errorf("expected 0.20, got %f", advice.RecommendedPosition)
	}
}

func TestSizer_RegimeScalesAndDowngrades(t *testing.T) {
	sizer := NewSizer(DefaultSizingConfig(), nil)
	st := makeStats(50, 0.70, 0.30, 0, 0)

	bear := sizer.Size(st, 0.75, domain.RegimeBearish)
	if bear.Signal != domain.SignalCautiousBuy {
		t.Errorf("expected cautious-buy under bearish regime, got %s", bear.Signal)
	}
	if math.Abs(bear.RecommendedPosition-0.65*0.7) > 1e-12 {
		t.Errorf("expected %f, got %f", 0.65*0.7, bear.RecommendedPosition)
	}

	bull := sizer.Size(makeStats(50, 0.30, 0.70, 0, 0), 0.75, domain.RegimeStrongBullish)
	if bull.Signal != domain.SignalCautiousSell {
		t.Errorf("expected cautious-sell under bullish regime, got %s", bull.Signal)
	}
}

func TestSizer_PositionAlwaysClamped(t *testing.T) {
	sizer := NewSizer(DefaultSizingConfig(), nil)
	regimes := []domain.Regime{
		domain.RegimeUnknown, domain.RegimeStrongBullish, domain.RegimeBullish,
		domain.RegimeNeutral, domain.RegimeVolatile, domain.RegimeBearish, domain.RegimeStrongBearish,
	}

	for _, r := range regimes {
		for _, up := range []float64{0, 0.2, 0.5, 0.8, 1} {
			for _, conf := range []float64{0, 0.7, 0.8, 1} {
				for _, mean := range []float64{-0.05, 0, 0.001, 0.5} {
					advice := sizer.Size(makeStats(40, up, 1-up, mean, 0.02), conf, r)
					if advice.RecommendedPosition < 0.1 || advice.RecommendedPosition > 0.9 {
						t.Fatalf("regime=%s up=%v conf=%v mean=%v: position %f out of bounds",
							r, up, conf, mean, advice.RecommendedPosition)
					}
				}
			}
		}
	}
}

func TestRegimeFactor_Range(t *testing.T) {
	for _, r := range []domain.Regime{
		domain.RegimeUnknown, domain.RegimeStrongBullish, domain.RegimeBullish,
		domain.RegimeNeutral, domain.RegimeVolatile, domain.RegimeBearish, domain.RegimeStrongBearish,
	} {
		f := RegimeFactor(r)
		if f < MinRegimeFactor || f > MaxRegimeFactor {
			t.Errorf("regime %q factor %f outside [%v, %v]", r, f, MinRegimeFactor, MaxRegimeFactor)
		}
	}
}

func TestSizingConfig_Validate(t *testing.T) {
	if err := DefaultSizingConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}

	invalid := map[string]func(*SizingConfig){
		"floor below 0.1":   func(c *SizingConfig) { c.MinPosition = 0 },
		"ceiling above 0.9": func(c *SizingConfig) { c.MaxPosition = 1 },
		"inverted bounds":   func(c *SizingConfig) { c.MinPosition, c.MaxPosition = 0.6, 0.4 },
		"negative weight":   func(c *SizingConfig) { c.KellyWeight = -0.1 },
	}
	for name, mutate := range invalid {
		cfg := DefaultSizingConfig()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidParameter) {
			t.Errorf("%s: expected ErrInvalidParameter, got %v", name, err)
		}
	}
}

func TestSizer_SmallBlendStaysAboveFloor(t *testing.T) {
	cfg := DefaultSizingConfig()
	cfg.BaseWeight = 0.1
	cfg.KellyWeight = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	advice := NewSizer(cfg, nil).Size(makeStats(40, 0.5, 0.5, 0.001, 0.02), 0.5, domain.RegimeStrongBearish)
	if advice.RecommendedPosition != PositionFloor {
		t.Errorf("expected position clamped to %v, got %v", PositionFloor, advice.RecommendedPosition)
	}
}
