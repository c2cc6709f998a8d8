package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 0.5, 48)

	if len(s) != 48 || s[0] != 0 {
		t.Fatalf("len %d first %v", len(s), s[0])
	}

	if math.Abs(s[12]-0.5) > 1e-12 {
		t.Fatalf("quarter period = %v, want 0.5", s[12])
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(42, 0.25, 256)
	b := DeterministicNoise(42, 0.25, 256)
	c := DeterministicNoise(43, 0.25, 256)

	RequireSliceNearlyEqual(t, a, b, 0)

	if Peak(a) > 0.25 || Peak(a) == 0 {
		t.Fatalf("peak %v outside (0, 0.25]", Peak(a))
	}

	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
		}
	}

	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestImpulseAndDC(t *testing.T) {
	tests := []struct {
		name string
		got  []float64
		want []float64
	}{
		{"impulse", Impulse(4, 2), []float64{0, 0, 1, 0}},
		{"impulse out of range", Impulse(3, 5), []float64{0, 0, 0}},
		{"dc", DC(0.5, 3), []float64{0.5, 0.5, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RequireSliceNearlyEqual(t, tt.got, tt.want, 0)
		})
	}
}

func TestRMSAndPeak(t *testing.T) {
	if got := RMS(DeterministicSine(100, 48000, 1, 48000)); math.Abs(got-math.Sqrt2/2) > 1e-6 {
		t.Fatalf("sine RMS = %v", got)
	}

	if RMS(nil) != 0 {
		t.Fatal("RMS(nil) != 0")
	}

	if got := Peak([]float64{0.1, -0.7, 0.3}); got != 0.7 {
		t.Fatalf("Peak = %v", got)
	}
}
