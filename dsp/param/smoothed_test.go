package param

import (
	"math"
	"testing"
)

func TestSmoothedLinearReachesTargetInSteps(t *testing.T) {
	s := NewSmoothed(RampLinear, 0)
	s.Reset(1000, 10) // 10 samples

	s.SetTarget(1)
	if !s.IsSmoothing() {
		t.Fatal("expected smoothing after SetTarget")
	}

	prev := s.Current()
	for i := range 10 {
		v := s.Next()
		if v <= prev {
			t.Fatalf("step %d did not advance: %v <= %v", i, v, prev)
		}
		prev = v
	}

	if s.IsSmoothing() {
		t.Fatal("still smoothing after the ramp length")
	}
	if s.Current() != 1 {
		t.Fatalf("Current = %v, want exactly 1", s.Current())
	}
}

func TestSmoothedMultiplicative(t *testing.T) {
	s := NewSmoothed(RampMultiplicative, 0.1)
	s.Reset(1000, 4)
	s.SetTarget(1.6)

	want := []float64{0.2, 0.4, 0.8, 1.6}
	for i, w := range want {
		if got := s.Next(); math.Abs(got-w) > 1e-12 {
			t.Fatalf("Next()[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestSmoothedMultiplicativeClampsZero(t *testing.T) {
	s := NewSmoothed(RampMultiplicative, 0)
	if s.Current() <= 0 {
		t.Fatalf("multiplicative value must stay positive, got %v", s.Current())
	}
}

func TestSmoothedWithoutRampJumps(t *testing.T) {
	s := NewSmoothed(RampLinear, 0)
	s.SetTarget(3)
	if s.IsSmoothing() || s.Next() != 3 {
		t.Fatal("zero-length ramp should jump to target")
	}
}

func TestSmoothedSkip(t *testing.T) {
	a := NewSmoothed(RampLinear, 0)
	b := NewSmoothed(RampLinear, 0)
	a.Reset(1000, 20)
	b.Reset(1000, 20)
	a.SetTarget(2)
	b.SetTarget(2)

	for range 7 {
		a.Next()
	}
	b.Skip(7)

	if math.Abs(a.Current()-b.Current()) > 1e-12 {
		t.Fatalf("Skip(7) = %v, Next x7 = %v", b.Current(), a.Current())
	}

	if got := b.Skip(100); got != 2 || b.IsSmoothing() {
		t.Fatalf("Skip past end = %v smoothing=%v", got, b.IsSmoothing())
	}
}

func TestSmoothedRetargetMidRamp(t *testing.T) {
	s := NewSmoothed(RampLinear, 0)
	s.Reset(1000, 10)
	s.SetTarget(1)
	for range 5 {
		s.Next()
	}

	mid := s.Current()
	s.SetTarget(0)
	for range 10 {
		v := s.Next()
		if v > mid {
			t.Fatalf("ramp went up after retargeting down: %v > %v", v, mid)
		}
	}
	if s.Current() != 0 {
		t.Fatalf("Current = %v, want 0", s.Current())
	}
}
