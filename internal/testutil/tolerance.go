package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails unless got and want have the same length and
// every pair differs by at most eps.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if d := math.Abs(got[i] - want[i]); d > eps || math.IsNaN(d) {
			t.Fatalf("index %d: got %v, want %v (diff %v > %v)", i, got[i], want[i], d, eps)
		}
	}
}

// RequireFinite fails if any element is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireBounded fails if any element is non-finite or exceeds limit in
// magnitude.
func RequireBounded(t testing.TB, data []float64, limit float64) {
	t.Helper()
	RequireFinite(t, data)

	for i, v := range data {
		if math.Abs(v) > limit {
			t.Fatalf("index %d: |%v| exceeds %v", i, v, limit)
		}
	}
}
