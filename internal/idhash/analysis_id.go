package idhash

import (
	"strconv"
	"time"
)

// ComputeAnalysisID computes a deterministic analysis result id.
// Formula: SHA256(symbol|period|horizon|as_of_date|reference_price|tolerance)
// Floats are formatted with the shortest round-trip representation so equal
// inputs always hash equally.
func ComputeAnalysisID(
	symbol string,
	period string,
	horizon int,
	asOf time.Time,
	referencePrice float64,
	tolerance float64,
) string {
	return hashParts("%s|%s|%d|%s|%s|%s",
		symbol,
		period,
		horizon,
		asOf.UTC().Format(time.DateOnly),
		strconv.FormatFloat(referencePrice, 'g', -1, 64),
		strconv.FormatFloat(tolerance, 'g', -1, 64),
	)
}
