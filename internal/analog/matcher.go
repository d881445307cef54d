// Package analog finds historical bars that resemble the present price and
// measures what happened after them.
package analog

import (
	"fmt"

	"analog-lab/internal/domain"
)

// DefaultExclusionDays keeps the most recent week out of the analog set.
const DefaultExclusionDays = 5

// MatchParams controls an analog search.
type MatchParams struct {
	ReferencePrice *float64 // nil means the last close
	Tolerance      float64  // relative band half-width, e.g. 0.05
	ExclusionDays  int      // calendar days before the last bar that are never matched
}

// FindMatches returns bars whose close lies within the tolerance band around
// the reference price and whose date is at or before last_date - exclusion.
// Matches are returned in chronological order. An empty set is not an error.
func FindMatches(series *domain.PriceSeries, params MatchParams) (*domain.MatchSet, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: cannot match against an empty series", domain.ErrInsufficientData)
	}
	if params.Tolerance <= 0 {
		return nil, fmt.Errorf("%w: tolerance must be positive, got %v", domain.ErrInvalidParameter, params.Tolerance)
	}
	if params.ExclusionDays < 0 {
		return nil, fmt.Errorf("%w: exclusion window must not be negative, got %d", domain.ErrInvalidParameter, params.ExclusionDays)
	}

	last := series.Last()
	ref := last.Close
	if params.ReferencePrice != nil {
		ref = *params.ReferencePrice
	}
	if ref <= 0 {
		return nil, fmt.Errorf("%w: reference price must be positive, got %v", domain.ErrInvalidParameter, ref)
	}

	set := &domain.MatchSet{
		ReferencePrice: ref,
		Tolerance:      params.Tolerance,
		Lower:          ref * (1 - params.Tolerance),
		Upper:          ref * (1 + params.Tolerance),
		Cutoff:         last.Date.AddDate(0, 0, -params.ExclusionDays),
	}

	for i, bar := range series.Bars {
		// Bars are ascending, nothing later can qualify.
		if bar.Date.After(set.Cutoff) {
			break
		}
		if bar.Close >= set.Lower && bar.Close <= set.Upper {
			set.Matches = append(set.Matches, domain.AnalogMatch{
				Index: i,
				Date:  bar.Date,
				Close: bar.Close,
			})
		}
	}

	return set, nil
}
