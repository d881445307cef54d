// Package lookup resolves a point in time to a bar of a price series.
package lookup

import (
	"errors"
	"sort"
	"time"

	"analog-lab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoPriceData   = errors.New("no price data available")
	ErrBeforeHistory = errors.New("target precedes the first bar")
)

// IndexAt returns the index of the last bar dated at or before target.
// Returns ErrNoPriceData for an empty series and ErrBeforeHistory when every
// bar is after target.
func IndexAt(target time.Time, series *domain.PriceSeries) (int, error) {
	if series.Len() == 0 {
		return -1, ErrNoPriceData
	}

	// First bar strictly after target
	i := sort.Search(len(series.Bars), func(i int) bool {
		return series.Bars[i].Date.After(target)
	})
	if i == 0 {
		return -1, ErrBeforeHistory
	}
	return i - 1, nil
}
