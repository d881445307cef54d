package domain

import "time"

// AnalogMatch is a past bar whose close fell inside the tolerance band.
type AnalogMatch struct {
	Index int       `json:"index"` // position in the source series
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// MatchSet is the outcome of an analog search. An empty set is a valid result.
type MatchSet struct {
	ReferencePrice float64       `json:"reference_price"`
	Tolerance      float64       `json:"tolerance"`
	Lower          float64       `json:"lower"`
	Upper          float64       `json:"upper"`
	Cutoff         time.Time     `json:"cutoff"` // latest eligible match date
	Matches        []AnalogMatch `json:"matches"`
}

// Empty reports whether no analog qualified.
func (m *MatchSet) Empty() bool {
	return m == nil || len(m.Matches) == 0
}

// ForwardReturnSample is one realized forward return for a match.
type ForwardReturnSample struct {
	MatchIndex int       `json:"match_index"`
	MatchDate  time.Time `json:"match_date"`
	Horizon    int       `json:"horizon"`
	Return     float64   `json:"return"`
}

// SampleReturns extracts the return values in sample order.
func SampleReturns(samples []ForwardReturnSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Return
	}
	return out
}
