package domain

import "errors"

// Core errors. Empty match sets and undefined ratios are results, not errors.
var (
	// ErrInvalidParameter is returned for non-positive tolerance, reference price,
	// horizon, capital, or out-of-range friction.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientData is returned when a series is empty or shorter than a
	// requested window or horizon needs, including when a loader found nothing.
	ErrInsufficientData = errors.New("insufficient data")
)
