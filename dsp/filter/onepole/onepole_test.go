package onepole

import (
	"math"
	"testing"
)

func TestAlphaAndTimeCoefficientEdgeCases(t *testing.T) {
	if Alpha(0, 48000) != 1 || Alpha(100, 0) != 1 {
		t.Fatal("Alpha should pass through for invalid inputs")
	}

	if TimeCoefficient(0, 48000) != 0 {
		t.Fatal("TimeCoefficient(0) should be instant")
	}

	// After one time constant a follower covers 1-1/e of a step.
	c := TimeCoefficient(10, 48000)
	env := 0.0

	for range 480 {
		env = c*env + (1-c)*1
	}

	if math.Abs(env-(1-math.Exp(-1))) > 1e-3 {
		t.Fatalf("env after tau = %v, want %v", env, 1-math.Exp(-1))
	}
}

func TestLowPassSettlesToDC(t *testing.T) {
	f := NewLowPass(100, 48000, 1)

	var y float64
	for range 48000 {
		y = f.ProcessSample(0, 0.5)
	}

	if math.Abs(y-0.5) > 1e-9 {
		t.Fatalf("DC output %v, want 0.5", y)
	}
}

func TestHighPassBlocksDC(t *testing.T) {
	f := NewHighPass(20, 48000, 2)

	var y float64
	for range 48000 {
		y = f.ProcessSample(1, 1)
	}

	if math.Abs(y) > 1e-6 {
		t.Fatalf("DC output %v, want 0", y)
	}
}

func TestAllPassHasUnityMagnitude(t *testing.T) {
	const sr = 48000.0

	for _, freq := range []float64{100, 1000, 8000} {
		f := NewAllPass(1500, sr, 1)
		sum := 0.0

		// The measured window holds a whole number of periods.
		for i := range 24000 {
			y := f.ProcessSample(0, math.Sin(2*math.Pi*freq*float64(i)/sr))
			if i >= 12000 {
				sum += y * y
			}
		}

		rms := math.Sqrt(sum / 12000)
		if math.Abs(rms-1/math.Sqrt2) > 0.005 {
			t.Fatalf("freq %v: rms %v, want %v", freq, rms, 1/math.Sqrt2)
		}
	}
}

func TestAllPassCoefficientSign(t *testing.T) {
	f := NewAllPass(1000, 48000, 1)
	if f.Coefficient() >= 0 {
		t.Fatalf("low cutoff coefficient %v, want negative", f.Coefficient())
	}

	f.SetCutoff(20000, 48000)
	if f.Coefficient() <= 0 {
		t.Fatalf("high cutoff coefficient %v, want positive", f.Coefficient())
	}
}
