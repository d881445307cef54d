package stats

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
	if got := Mean([]float64{1, 2, 3, 4}); math.Abs(got-2.5) > eps {
		t.Errorf("expected 2.5, got %f", got)
	}
}

func TestStddev_Sample(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	// Sample variance = 32 / 7
	want := math.Sqrt(32.0 / 7.0)
	if got := Stddev(values, Mean(values)); math.Abs(got-want) > eps {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestStddev_SingleValue(t *testing.T) {
	if got := Stddev([]float64{0.5}, 0.5); got != 0 {
		t.Errorf("expected 0 for single value, got %f", got)
	}
}

func TestDownsideStddev_UsesNegativesOnly(t *testing.T) {
	values := []float64{0.10, -0.02, 0.05, -0.04}
	neg := []float64{-0.02, -0.04}
	want := Stddev(neg, Mean(neg))
	if got := DownsideStddev(values, Mean(values)); math.Abs(got-want) > eps {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestDownsideStddev_FallsBackWithSingleNegative(t *testing.T) {
	values := []float64{0.02, 0.01, -0.03, 0.04}
	want := Stddev(values, Mean(values))
	got := DownsideStddev(values, Mean(values))
	if got == 0 || math.Abs(got-want) > eps {
		t.Errorf("expected fallback %f, got %f", want, got)
	}
}

func TestDownsideStddev_FallsBackWithoutNegatives(t *testing.T) {
	values := []float64{0.01, 0.02, 0.03}
	want := Stddev(values, Mean(values))
	if got := DownsideStddev(values, Mean(values)); math.Abs(got-want) > eps {
		t.Errorf("expected fallback %f, got %f", want, got)
	}
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.05, 1.2},
		{1, 5},
	}
	for _, tt := range tests {
		if got := Percentile(sorted, tt.p); math.Abs(got-tt.want) > eps {
			t.Errorf("Percentile(%v) = %f, want %f", tt.p, got, tt.want)
		}
	}
}

func TestPercentile_Empty(t *testing.T) {
	if got := Percentile(nil, 0.5); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestSkewness_Symmetric(t *testing.T) {
	values := []float64{-2, -1, 0, 1, 2}
	if got := Skewness(values, Mean(values)); math.Abs(got) > eps {
		t.Errorf("expected 0 skew for symmetric data, got %f", got)
	}
}

func TestSkewness_RightTail(t *testing.T) {
	values := []float64{0, 0, 0, 0, 10}
	if got := Skewness(values, Mean(values)); got <= 0 {
		t.Errorf("expected positive skew, got %f", got)
	}
}

func TestKurtosis_Constant(t *testing.T) {
	values := []float64{3, 3, 3}
	if got := Kurtosis(values, 3); got != 0 {
		t.Errorf("expected 0 for constant data, got %f", got)
	}
}

func TestKurtosis_TwoPoint(t *testing.T) {
	// A symmetric two-point distribution has kurtosis 1, excess -2.
	values := []float64{-1, 1, -1, 1}
	if got := Kurtosis(values, 0); math.Abs(got+2) > eps {
		t.Errorf("expected -2, got %f", got)
	}
}

func TestTailMean(t *testing.T) {
	values := []float64{-0.10, -0.05, 0.02, 0.04}
	if got := TailMean(values, -0.05); math.Abs(got+0.075) > eps {
		t.Errorf("expected -0.075, got %f", got)
	}
	if got := TailMean(values, -1); got != 0 {
		t.Errorf("expected 0 for empty tail, got %f", got)
	}
}

func TestSigmoidAndClamp(t *testing.T) {
	if got := Sigmoid(0); math.Abs(got-0.5) > eps {
		t.Errorf("Sigmoid(0) = %f", got)
	}
	if Clamp(1.5, 0, 1) != 1 || Clamp(-1, 0, 1) != 0 || Clamp(0.3, 0, 1) != 0.3 {
		t.Errorf("Clamp out of bounds")
	}
}
