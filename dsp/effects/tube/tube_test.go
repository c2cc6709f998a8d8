package tube

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/internal/testutil"
)

func testSpec() core.ProcessSpec {
	return core.NewProcessSpec(core.WithSampleRate(48000), core.WithBlockSize(256), core.WithChannels(2))
}

func newPreparedTriode(t *testing.T, opts ...TriodeOption) *Triode {
	t.Helper()

	tr, err := NewTriode(opts...)
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.Prepare(testSpec()); err != nil {
		t.Fatal(err)
	}

	return tr
}

func TestTriodeZeroInZeroOut(t *testing.T) {
	for _, g := range []float64{0, 0.5, 1, 10, 100} {
		tr := newPreparedTriode(t, WithTriodeGains(g, g*0.7))

		buf := buffer.New(2, 256)
		for range 4 {
			tr.Process(buf)

			for ch := range 2 {
				for i, v := range buf.Channel(ch) {
					if v != 0 {
						t.Fatalf("gain %v: ch%d[%d] = %v, want 0", g, ch, i, v)
					}
				}
			}
		}
	}
}

func TestTriodeZeroGainSilences(t *testing.T) {
	tr := newPreparedTriode(t, WithTriodeGains(0, 0))

	buf := buffer.FromSlices(testutil.DeterministicSine(440, 48000, 0.8, 256))
	tr.Process(buf)

	for i, v := range buf.Channel(0) {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0", i, v)
		}
	}
}

func TestTriodeBoundedAndFinite(t *testing.T) {
	tr := newPreparedTriode(t, WithTriodeGains(50, 30))

	buf := buffer.FromSlices(
		testutil.DeterministicSine(110, 48000, 2, 256),
		testutil.DeterministicNoise(7, 1, 256),
	)
	tr.Process(buf)

	for ch := range 2 {
		testutil.RequireFinite(t, buf.Channel(ch))

		if p := buf.Peak(ch); p > 1+1e-12 {
			t.Fatalf("ch%d peak %v exceeds 1", ch, p)
		}
	}
}

func TestTriodeAsymmetry(t *testing.T) {
	tr := newPreparedTriode(t, WithTriodeGains(4, 1))

	pos := tr.ProcessSample(0, 0.5)
	tr.Reset()
	neg := tr.ProcessSample(0, -0.5)

	if math.Abs(pos) <= math.Abs(neg) {
		t.Fatalf("|f(0.5)|=%v should exceed |f(-0.5)|=%v with gp > gn", pos, neg)
	}

	if pos <= 0 || neg >= 0 {
		t.Fatalf("sign not preserved: f(0.5)=%v f(-0.5)=%v", pos, neg)
	}
}

func TestTriodeGainRampIsContinuous(t *testing.T) {
	tr := newPreparedTriode(t, WithTriodeGains(1, 1))

	const n = 256
	dc := testutil.DC(0.1, n)

	buf := buffer.FromSlices(append([]float64(nil), dc...))
	tr.Process(buf)
	last := buf.Channel(0)[n-1]

	tr.SetGains(20, 20)

	buf = buffer.FromSlices(append([]float64(nil), dc...))
	tr.Process(buf)
	out := buf.Channel(0)

	if step := math.Abs(out[0] - last); step > 0.05 {
		t.Fatalf("first ramped sample jumped by %v", step)
	}

	for i := 1; i < n; i++ {
		if out[i] < out[i-1]-1e-3 {
			t.Fatalf("ramp not rising at %d: %v -> %v", i, out[i-1], out[i])
		}
	}

	if gp, gn := tr.Gains(); gp != 20 || gn != 20 {
		t.Fatalf("Gains() = %v, %v", gp, gn)
	}
}

func TestTriodeGainsClamped(t *testing.T) {
	tr := newPreparedTriode(t)

	tr.SetGains(-1, math.NaN())
	if gp, gn := tr.Gains(); gp != 0 || gn != 0 {
		t.Fatalf("got %v, %v want 0, 0", gp, gn)
	}

	tr.SetGains(1e6, 1e6)
	if gp, _ := tr.Gains(); gp != maxTriodeGain {
		t.Fatalf("gp = %v, want %v", gp, maxTriodeGain)
	}
}

func TestTriodeOptionsValidation(t *testing.T) {
	if _, err := NewTriode(WithEnvelopeHz(0)); err == nil {
		t.Fatal("expected error for zero envelope cutoff")
	}

	tr, err := NewTriode()
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.Prepare(core.ProcessSpec{}); err == nil {
		t.Fatal("expected error for empty spec")
	}
}

func TestCurvesPassThroughOrigin(t *testing.T) {
	curves := []struct {
		name  string
		curve Curve
	}{
		{"classic", Classic{Lp: 1.2, Ln: 0.8}},
		{"nu", Nu{Kp: 1.5, Kn: 2.5}},
		{"nu-linear", Nu{}},
	}

	for _, tc := range curves {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.curve.Shape(0); got != 0 {
				t.Fatalf("Shape(0) = %v", got)
			}

			prev := tc.curve.Shape(-4)
			for x := -3.9; x <= 4; x += 0.1 {
				y := tc.curve.Shape(x)
				if y < prev {
					t.Fatalf("not monotonic at %v: %v < %v", x, y, prev)
				}

				prev = y
			}
		})
	}
}

func TestClassicKnees(t *testing.T) {
	c := Classic{Lp: 1, Ln: 0.5}

	if got := c.Shape(1); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("Shape(1) = %v, want 0.5", got)
	}

	if got := c.Shape(-1); math.Abs(got+1.0/3) > 1e-12 {
		t.Fatalf("Shape(-1) = %v, want -1/3", got)
	}
}

func TestPentodeZeroInZeroOut(t *testing.T) {
	p, err := NewPentode(Nu{Kp: 1.5, Kn: 2}, WithDrive(8))
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Prepare(testSpec()); err != nil {
		t.Fatal(err)
	}

	buf := buffer.New(2, 128)
	p.Process(buf)

	for ch := range 2 {
		for i, v := range buf.Channel(ch) {
			if v != 0 {
				t.Fatalf("ch%d[%d] = %v", ch, i, v)
			}
		}
	}
}

func TestPentodeBiasShiftReducesPositiveSwing(t *testing.T) {
	run := func(shift float64) float64 {
		p, err := NewPentode(Classic{Lp: 1, Ln: 1}, WithBiasShift(shift))
		if err != nil {
			t.Fatal(err)
		}

		if err := p.Prepare(testSpec()); err != nil {
			t.Fatal(err)
		}

		buf := buffer.FromSlices(testutil.DeterministicSine(100, 48000, 0.9, 4800))
		p.Process(buf)

		maxPos := 0.0
		for _, v := range buf.Channel(0) {
			maxPos = math.Max(maxPos, v)
		}

		return maxPos
	}

	if plain, shifted := run(0), run(0.8); shifted >= plain {
		t.Fatalf("bias shift did not compress: %v >= %v", shifted, plain)
	}
}

func TestPentodeOptionsValidation(t *testing.T) {
	if _, err := NewPentode(Classic{1, 1}, WithDrive(-1)); err == nil {
		t.Fatal("expected error for negative drive")
	}

	if _, err := NewPentode(Classic{1, 1}, WithBiasShift(2)); err == nil {
		t.Fatal("expected error for bias shift > 1")
	}

	if _, err := NewPentode(Classic{1, 1}, WithEnvelopeMs(0)); err == nil {
		t.Fatal("expected error for zero envelope time")
	}
}

func BenchmarkTriodeProcess(b *testing.B) {
	tr, _ := NewTriode(WithTriodeGains(8, 6))
	_ = tr.Prepare(testSpec())
	buf := buffer.FromSlices(
		testutil.DeterministicSine(220, 48000, 0.5, 256),
		testutil.DeterministicSine(220, 48000, 0.5, 256),
	)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		tr.Process(buf)
	}
}

func BenchmarkPentodeNu(b *testing.B) {
	p, _ := NewPentode(Nu{Kp: 1.5, Kn: 2})
	_ = p.Prepare(testSpec())
	buf := buffer.FromSlices(testutil.DeterministicSine(220, 48000, 0.5, 256))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p.Process(buf)
	}
}
