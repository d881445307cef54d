package domain

import (
	"errors"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestPriceSeries_Validate_Empty(t *testing.T) {
	s := &PriceSeries{Symbol: "AAA"}
	if err := s.Validate(); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestPriceSeries_Validate_Unordered(t *testing.T) {
	s := &PriceSeries{Bars: []PriceBar{
		{Date: day(1), Close: 10},
		{Date: day(1), Close: 11},
	}}
	if err := s.Validate(); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for duplicate date, got %v", err)
	}
}

func TestPriceSeries_Validate_NonPositiveClose(t *testing.T) {
	s := &PriceSeries{Bars: []PriceBar{{Date: day(0), Close: 0}}}
	if err := s.Validate(); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestPriceSeries_Head(t *testing.T) {
	s := &PriceSeries{Symbol: "AAA", Bars: []PriceBar{
		{Date: day(0), Close: 1},
		{Date: day(1), Close: 2},
		{Date: day(2), Close: 3},
	}}

	got := s.Head(2)
	if got.Len() != 2 {
		t.Fatalf("expected 2 bars, got %d", got.Len())
	}
	if got.Last().Close != 2 {
		t.Errorf("expected last close 2, got %v", got.Last().Close)
	}
	if got.Symbol != "AAA" {
		t.Errorf("expected symbol to carry over, got %q", got.Symbol)
	}
	if s.Head(10).Len() != 3 {
		t.Errorf("expected oversized head to return every bar")
	}

	// Appending to the view must not clobber the source.
	_ = append(got.Bars, PriceBar{Close: 99})
	if s.Bars[2].Close != 3 {
		t.Errorf("head view aliased source array")
	}
}

func TestParseSignal(t *testing.T) {
	tests := []struct {
		in      string
		want    Signal
		wantErr bool
	}{
		{"buy", SignalBuy, false},
		{"STRONG-SELL", SignalStrongSell, false},
		{" hold ", SignalHold, false},
		{"", SignalHold, false},
		{"cautious-buy", "", true},
		{"short", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSignal(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("ParseSignal(%q): expected ErrInvalidParameter, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSignal(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestSignal_Tradable(t *testing.T) {
	if SignalCautiousBuy.Tradable() != SignalHold {
		t.Errorf("cautious-buy should replay as hold")
	}
	if SignalNeutral.Tradable() != SignalHold {
		t.Errorf("neutral should replay as hold")
	}
	if SignalStrongBuy.Tradable() != SignalStrongBuy {
		t.Errorf("strong-buy should pass through")
	}
}
