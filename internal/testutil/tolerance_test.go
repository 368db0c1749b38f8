package testutil

import (
	"math"
	"testing"
)

func TestWorstDiff(t *testing.T) {
	i, d := WorstDiff([]float64{1, 2, 3}, []float64{1.1, 2, 2.5})
	if i != 2 || math.Abs(d-0.5) > 1e-15 {
		t.Errorf("got (%d, %v), want (2, 0.5)", i, d)
	}
}

func TestWorstDiffEmpty(t *testing.T) {
	if i, d := WorstDiff(nil, []float64{1}); i != -1 || d != 0 {
		t.Errorf("got (%d, %v), want (-1, 0)", i, d)
	}
}

func TestWorstDiffNaN(t *testing.T) {
	i, d := WorstDiff([]float64{0, math.NaN(), 5}, []float64{0, 0, 0})
	if i != 1 || !math.IsInf(d, 1) {
		t.Errorf("got (%d, %v), want (1, +Inf)", i, d)
	}
}

func TestRequireExact(t *testing.T) {
	RequireExact(t, []float64{1, -2, 0.5}, []float64{1, -2, 0.5})
}
