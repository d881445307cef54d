package decision

import (
	"math"

	"analog-lab/internal/domain"
	"analog-lab/internal/stats"
)

// ScoreConfidence rates how much a distribution can be trusted, in [0, 1].
//
//	size        = sigmoid((n - inflection) / scale)
//	consistency = max(0, (max(up, down) - 0.5) / 0.5)
//	confidence  = clamp(w_size*size + w_cons*consistency, 0, 1)
//
// A distribution with no samples scores 0.
func ScoreConfidence(s domain.DistributionStats, w ConfidenceWeights) float64 {
	if s.SampleSize == 0 || s.Insufficient {
		return 0
	}

	scale := w.Scale
	if scale <= 0 {
		scale = DefaultConfidenceWeights().Scale
	}

	size := stats.Sigmoid((float64(s.SampleSize) - w.Inflection) / scale)
	dominant := math.Max(s.UpProbability, s.DownProbability)
	consistency := math.Max(0, (dominant-0.5)/0.5)

	return stats.Clamp(w.SampleSize*size+w.Consistency*consistency, 0, 1)
}
