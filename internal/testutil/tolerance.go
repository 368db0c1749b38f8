package testutil

import (
	"math"
	"testing"
)

// RequireExact fails t unless got and want have the same length and equal
// elements. Streaming and split-call comparisons use it: the same
// arithmetic in the same order must give the same result.
func RequireExact(t testing.TB, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// RequireNear fails t if the slices differ in length or the largest
// absolute difference exceeds eps. The worst index is reported.
func RequireNear(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	if i, d := WorstDiff(got, want); d > eps {
		t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], d, eps)
	}
}

// WorstDiff returns the index and size of the largest absolute difference
// over the common prefix of a and b, or (-1, 0) when it is empty.
func WorstDiff(a, b []float64) (int, float64) {
	idx, worst := -1, 0.0
	for i := range min(len(a), len(b)) {
		d := math.Abs(a[i] - b[i])
		if idx < 0 || d > worst || math.IsNaN(d) {
			idx, worst = i, d
			if math.IsNaN(d) {
				return idx, math.Inf(1)
			}
		}
	}
	return idx, worst
}
