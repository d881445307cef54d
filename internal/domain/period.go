package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodMax requests the full stored history.
const PeriodMax = "max"

// PeriodStart resolves a lookback such as "90d", "6m", "3y" or "max" to the
// first date it covers, counted back from end. "max" returns the zero time.
func PeriodStart(period string, end time.Time) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	if p == "" || p == PeriodMax {
		return time.Time{}, nil
	}
	if len(p) < 2 {
		return time.Time{}, fmt.Errorf("%w: period %q", ErrInvalidParameter, period)
	}

	n, err := strconv.Atoi(p[:len(p)-1])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("%w: period %q", ErrInvalidParameter, period)
	}

	switch p[len(p)-1] {
	case 'd':
		return end.AddDate(0, 0, -n), nil
	case 'w':
		return end.AddDate(0, 0, -7*n), nil
	case 'm':
		return end.AddDate(0, -n, 0), nil
	case 'y':
		return end.AddDate(-n, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: period %q has unknown unit", ErrInvalidParameter, period)
	}
}
