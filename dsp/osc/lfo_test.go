package osc

import (
	"math"
	"testing"
)

func TestNewLFOValidation(t *testing.T) {
	if _, err := NewLFO(0, 1, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestLFOMatchesSine(t *testing.T) {
	l, err := NewLFO(1000, 5, 0.3)
	if err != nil {
		t.Fatal(err)
	}

	for n := range 2000 {
		want := math.Sin(0.3 + 2*math.Pi*5*float64(n)/1000)
		if got := l.Next(); math.Abs(got-want) > 1e-9 {
			t.Fatalf("n=%d: got %v want %v", n, got, want)
		}
	}
}

func TestLFOSkipMatchesNext(t *testing.T) {
	a, _ := NewLFO(48000, 0.7, 0)
	b, _ := NewLFO(48000, 0.7, 0)

	for range 1234 {
		a.Next()
	}

	b.Skip(1234)

	if math.Abs(a.Phase()-b.Phase()) > 1e-9 {
		t.Fatalf("phase after Skip %v, after Next %v", b.Phase(), a.Phase())
	}
}

func TestLFOPhaseWraps(t *testing.T) {
	l, _ := NewLFO(100, 10, -1)
	if l.Phase() < 0 || l.Phase() >= 2*math.Pi {
		t.Fatalf("phase %v out of range", l.Phase())
	}

	for range 1000 {
		l.Next()
		if l.Phase() < 0 || l.Phase() >= 2*math.Pi {
			t.Fatalf("phase %v out of range", l.Phase())
		}
	}
}

func TestSetSampleRateKeepsFrequency(t *testing.T) {
	l, _ := NewLFO(48000, 2, 0)
	if err := l.SetSampleRate(96000); err != nil {
		t.Fatal(err)
	}

	if l.Frequency() != 2 {
		t.Fatalf("Frequency() = %v", l.Frequency())
	}

	if err := l.SetSampleRate(-1); err == nil {
		t.Fatal("expected error")
	}
}
