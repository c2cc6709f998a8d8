package svf

import (
	"math"
	"testing"
)

// sineGain measures steady-state gain at freq from the output RMS over the
// second half of one second of sine. Frequencies should fit whole cycles
// into half a second.
func sineGain(f *Filter, freq, sampleRate float64) float64 {
	f.Reset()

	n := int(sampleRate)
	sum := 0.0

	for i := range n {
		y := f.ProcessSample(0, math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
		if i >= n/2 {
			sum += y * y
		}
	}

	return math.Sqrt(2 * sum / float64(n-n/2))
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Lowpass, 0, 1000, 0.7, 1); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := New(Lowpass, 48000, 1000, 0.7, 0); err == nil {
		t.Fatal("expected error for zero channels")
	}
}

func TestResponseShapes(t *testing.T) {
	const sr = 48000.0

	tests := []struct {
		name    string
		kind    Type
		freq    float64
		wantMin float64
		wantMax float64
	}{
		{"lowpass passband", Lowpass, 50, 0.98, 1.02},
		{"lowpass stopband", Lowpass, 16000, 0, 0.02},
		{"highpass passband", Highpass, 8000, 0.97, 1.03},
		{"highpass near nyquist", Highpass, 16000, 0.97, 1.03},
		{"highpass stopband", Highpass, 20, 0, 0.01},
		{"bandpass centre", Bandpass, 1000, 0.97, 1.03},
		{"bandpass skirt", Bandpass, 50, 0, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.kind, sr, 1000, 2, 1)
			if err != nil {
				t.Fatal(err)
			}

			g := sineGain(f, tt.freq, sr)
			if g < tt.wantMin || g > tt.wantMax {
				t.Fatalf("gain %v, want [%v, %v]", g, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestCutoffIsClampedBelowNyquist(t *testing.T) {
	f, err := New(Lowpass, 48000, 1e6, 0.7, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 1000 {
		y := f.ProcessSample(0, math.Sin(float64(i)))
		if math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("non-finite output at %d", i)
		}
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	f, err := New(Lowpass, 48000, 500, 0.7, 2)
	if err != nil {
		t.Fatal(err)
	}

	f.ProcessSample(0, 1)

	if y := f.ProcessSample(1, 0); y != 0 {
		t.Fatalf("channel 1 picked up state: %v", y)
	}
}

func TestPrepareClearsState(t *testing.T) {
	f, err := New(Lowpass, 48000, 500, 0.7, 1)
	if err != nil {
		t.Fatal(err)
	}

	f.ProcessSample(0, 1)

	if err := f.Prepare(44100, 3); err != nil {
		t.Fatal(err)
	}

	if f.NumChannels() != 3 {
		t.Fatalf("NumChannels() = %d", f.NumChannels())
	}

	if y := f.ProcessSample(0, 0); y != 0 {
		t.Fatalf("state survived Prepare: %v", y)
	}
}

func BenchmarkProcessSample(b *testing.B) {
	f, _ := New(Lowpass, 48000, 1000, 0.7, 1)
	x := 0.5

	for b.Loop() {
		x = f.ProcessSample(0, x)
	}
}
