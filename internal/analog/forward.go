package analog

import (
	"fmt"
	"sort"

	"analog-lab/internal/domain"
)

// ProjectForwardReturns computes, for each horizon, the return realized
// horizon bars after every match. Horizons count bars, not calendar days.
// Matches without enough later bars are omitted from that horizon.
func ProjectForwardReturns(series *domain.PriceSeries, matches *domain.MatchSet, horizons []int) (map[int][]domain.ForwardReturnSample, error) {
	if len(horizons) == 0 {
		return nil, fmt.Errorf("%w: no horizons requested", domain.ErrInvalidParameter)
	}
	for _, h := range horizons {
		if h <= 0 {
			return nil, fmt.Errorf("%w: horizon must be positive, got %d", domain.ErrInvalidParameter, h)
		}
	}

	n := series.Len()
	out := make(map[int][]domain.ForwardReturnSample, len(horizons))

	for _, h := range horizons {
		if n <= h {
			return nil, fmt.Errorf("%w: %d bars cannot cover a %d-bar horizon", domain.ErrInsufficientData, n, h)
		}
		samples, err := projectHorizon(series, matches, h)
		if err != nil {
			return nil, err
		}
		out[h] = samples
	}

	return out, nil
}

// projectHorizon computes samples for a single horizon.
func projectHorizon(series *domain.PriceSeries, matches *domain.MatchSet, horizon int) ([]domain.ForwardReturnSample, error) {
	if matches.Empty() {
		return nil, nil
	}

	samples := make([]domain.ForwardReturnSample, 0, len(matches.Matches))
	for _, m := range matches.Matches {
		if m.Index < 0 || m.Index >= series.Len() {
			return nil, fmt.Errorf("%w: match index %d outside series", domain.ErrInvalidParameter, m.Index)
		}
		future := m.Index + horizon
		if future >= series.Len() {
			continue
		}
		samples = append(samples, domain.ForwardReturnSample{
			MatchIndex: m.Index,
			MatchDate:  m.Date,
			Horizon:    horizon,
			Return:     (series.Bars[future].Close - m.Close) / m.Close,
		})
	}
	return samples, nil
}

// SortedHorizons returns the keys of a projection in ascending order.
func SortedHorizons(projection map[int][]domain.ForwardReturnSample) []int {
	keys := make([]int, 0, len(projection))
	for h := range projection {
		keys = append(keys, h)
	}
	sort.Ints(keys)
	return keys
}
