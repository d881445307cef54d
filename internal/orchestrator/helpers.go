package orchestrator

import (
	"sort"

	"analog-lab/internal/domain"
)

// sortedKeys returns map keys in ascending order so task order is stable.
func sortedKeys(m map[string]*domain.PriceSeries) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedByHorizon drops nil entries and orders results by horizon.
func sortedByHorizon(results []*domain.AnalysisResult) []*domain.AnalysisResult {
	out := make([]*domain.AnalysisResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Horizon < out[j].Horizon })
	return out
}
