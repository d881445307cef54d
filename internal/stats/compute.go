// Package stats holds the descriptive statistics shared by the estimator
// and the performance evaluator.
package stats

import (
	"math"
	"sort"
)

// TradingDaysPerYear is the annualization base for daily series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev calculates sample standard deviation (n-1 denominator).
// Returns 0 for fewer than two values.
func Stddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// DownsideStddev calculates the sample standard deviation of the negative
// values only. With fewer than two negatives the subset has no spread, so it
// falls back to the overall stddev.
func DownsideStddev(values []float64, mean float64) float64 {
	var negatives []float64
	for _, v := range values {
		if v < 0 {
			negatives = append(negatives, v)
		}
	}
	if len(negatives) < 2 {
		return Stddev(values, mean)
	}
	return Stddev(negatives, Mean(negatives))
}

// Sorted returns an ascending copy.
func Sorted(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// Percentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.05 = 5th percentile).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// centralMoment returns the k-th central moment with an n denominator.
func centralMoment(values []float64, mean float64, k int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Pow(v-mean, float64(k))
	}
	return sum / float64(len(values))
}

// Skewness calculates the moment-based skewness m3 / m2^1.5.
// Returns 0 when the values have no spread.
func Skewness(values []float64, mean float64) float64 {
	m2 := centralMoment(values, mean, 2)
	if m2 == 0 {
		return 0
	}
	return centralMoment(values, mean, 3) / math.Pow(m2, 1.5)
}

// Kurtosis calculates excess kurtosis m4 / m2^2 - 3.
// Returns 0 when the values have no spread.
func Kurtosis(values []float64, mean float64) float64 {
	m2 := centralMoment(values, mean, 2)
	if m2 == 0 {
		return 0
	}
	return centralMoment(values, mean, 4)/(m2*m2) - 3
}

// TailMean calculates the mean of values at or below threshold.
func TailMean(values []float64, threshold float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if v <= threshold {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Ratio divides, returning 0 when the denominator is zero.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
