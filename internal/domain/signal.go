package domain

import (
	"fmt"
	"strings"
)

// Signal is a per-bar trading instruction fed to the backtest.
type Signal string

// Signal labels accepted by the backtest engine.
const (
	SignalBuy        Signal = "buy"
	SignalStrongBuy  Signal = "strong-buy"
	SignalSell       Signal = "sell"
	SignalStrongSell Signal = "strong-sell"
	SignalHold       Signal = "hold"
)

// Advice labels produced by the position sizer. Neutral and the cautious
// variants map to hold when advice is replayed as a signal.
const (
	SignalNeutral      Signal = "neutral"
	SignalCautiousBuy  Signal = "cautious-buy"
	SignalCautiousSell Signal = "cautious-sell"
)

// IsEntry reports whether the signal opens a long position.
func (s Signal) IsEntry() bool {
	return s == SignalBuy || s == SignalStrongBuy
}

// IsExit reports whether the signal closes a long position.
func (s Signal) IsExit() bool {
	return s == SignalSell || s == SignalStrongSell
}

// Tradable collapses advice labels onto the backtest label set.
func (s Signal) Tradable() Signal {
	switch s {
	case SignalBuy, SignalStrongBuy, SignalSell, SignalStrongSell:
		return s
	default:
		return SignalHold
	}
}

// ParseSignal parses a label, case-insensitively. Empty input is hold.
func ParseSignal(v string) (Signal, error) {
	switch sig := Signal(strings.ToLower(strings.TrimSpace(v))); sig {
	case "":
		return SignalHold, nil
	case SignalBuy, SignalStrongBuy, SignalSell, SignalStrongSell, SignalHold:
		return sig, nil
	default:
		return "", fmt.Errorf("%w: unknown signal %q", ErrInvalidParameter, v)
	}
}

// ParseSignals parses a label series. Errors name the offending position.
func ParseSignals(labels []string) ([]Signal, error) {
	out := make([]Signal, len(labels))
	for i, v := range labels {
		sig, err := ParseSignal(v)
		if err != nil {
			return nil, fmt.Errorf("signal %d: %w", i, err)
		}
		out[i] = sig
	}
	return out, nil
}
