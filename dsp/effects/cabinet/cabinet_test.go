package cabinet

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/internal/testutil"
)

const sampleRate = 48000

func newPrepared(t *testing.T, channels int, opts ...Option) *Cabinet {
	t.Helper()

	c, err := New(opts...)
	if err != nil {
		t.Fatal(err)
	}

	spec := core.NewProcessSpec(core.WithSampleRate(sampleRate), core.WithBlockSize(256), core.WithChannels(channels))
	if err := c.Prepare(spec); err != nil {
		t.Fatal(err)
	}

	return c
}

func TestZeroInZeroOut(t *testing.T) {
	c := newPrepared(t, 2, WithType(Large))

	buf := buffer.New(2, 256)
	for range 4 {
		c.Process(buf)

		for ch := range 2 {
			for i, v := range buf.Channel(ch) {
				if v != 0 {
					t.Fatalf("ch%d[%d] = %v", ch, i, v)
				}
			}
		}
	}
}

func TestImpulseResponseDecays(t *testing.T) {
	for _, typ := range []Type{Small, Medium, Large} {
		t.Run(typ.String(), func(t *testing.T) {
			c := newPrepared(t, 1, WithType(typ))

			const blocks = 40

			out := make([]float64, 0, blocks*256)
			for b := range blocks {
				var in []float64
				if b == 0 {
					in = testutil.Impulse(256, 0)
				} else {
					in = make([]float64, 256)
				}

				buf := buffer.FromSlices(in)
				c.Process(buf)
				out = append(out, buf.Channel(0)...)
			}

			testutil.RequireFinite(t, out)

			head, tail := 0.0, 0.0
			for i, v := range out {
				if i < 2048 {
					head += v * v
				} else if i >= len(out)-2048 {
					tail += v * v
				}
			}

			if head == 0 || tail > head*1e-8 {
				t.Fatalf("impulse energy head=%v tail=%v", head, tail)
			}
		})
	}
}

func TestFilterBankShape(t *testing.T) {
	for _, typ := range []Type{Small, Medium, Large} {
		t.Run(typ.String(), func(t *testing.T) {
			c := newPrepared(t, 1, WithType(typ))

			mid := c.Response(1000)
			if low := c.Response(20); low >= mid {
				t.Fatalf("20 Hz %v dB not below 1 kHz %v dB", low, mid)
			}

			if high := c.Response(15000); high >= mid {
				t.Fatalf("15 kHz %v dB not below 1 kHz %v dB", high, mid)
			}
		})
	}
}

func TestLargerCabinetsReachLower(t *testing.T) {
	small := newPrepared(t, 1, WithType(Small))
	large := newPrepared(t, 1, WithType(Large))

	if s, l := small.Response(70), large.Response(70); l <= s {
		t.Fatalf("large cabinet at 70 Hz (%v dB) not above small (%v dB)", l, s)
	}
}

func TestTypeChangeAppliesAtBlockBoundary(t *testing.T) {
	c := newPrepared(t, 1)
	before := c.Response(70)

	c.SetType(Large)
	if c.Type() != Large {
		t.Fatalf("Type() = %v", c.Type())
	}

	if got := c.Response(70); got != before {
		t.Fatalf("response changed before processing: %v -> %v", before, got)
	}

	c.Process(buffer.New(1, 256))

	if got := c.Response(70); got == before {
		t.Fatal("response unchanged after block boundary")
	}

	c.SetType(Type(7))
	if c.Type() != Large {
		t.Fatal("invalid type was stored")
	}
}

func TestMicPositionRamps(t *testing.T) {
	c := newPrepared(t, 1)
	start := c.allpass.Coefficient()

	c.SetMicPosition(1)
	if c.MicPosition() != 1 {
		t.Fatalf("MicPosition() = %v", c.MicPosition())
	}

	buf := buffer.New(1, 256)
	c.Process(buf)

	mid := c.allpass.Coefficient()
	if mid == start {
		t.Fatal("all-pass did not move during ramp")
	}

	for range 20 {
		c.Process(buf)
	}

	ref := newPrepared(t, 1)
	ref.allpass.SetCutoff(micCutoff(1), sampleRate)

	if got, want := c.allpass.Coefficient(), ref.allpass.Coefficient(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("final coefficient %v, want %v", got, want)
	}
}

func TestEmptyBlockDuringMicRamp(t *testing.T) {
	c := newPrepared(t, 2)
	c.SetMicPosition(0.9)

	empty := buffer.New(2, 256)
	empty.SetNumSamples(0)
	c.Process(empty)

	buf := buffer.FromSlices(testutil.Impulse(256, 0), testutil.Impulse(256, 0))
	c.Process(buf)
	testutil.RequireFinite(t, buf.Channel(0))
}

func TestValidation(t *testing.T) {
	if _, err := New(WithFeedback(1.5)); err == nil {
		t.Fatal("expected error for feedback > 0.9")
	}

	if _, err := New(WithType(Type(-1))); err == nil {
		t.Fatal("expected error for invalid type")
	}

	c, err := New()
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Prepare(core.ProcessSpec{}); err == nil {
		t.Fatal("expected error for empty spec")
	}

	in := testutil.DeterministicSine(440, sampleRate, 0.5, 64)
	buf := buffer.FromSlices(append([]float64(nil), in...))
	c.Process(buf)
	testutil.RequireSliceNearlyEqual(t, buf.Channel(0), in, 0)
}

func BenchmarkCabinetProcess(b *testing.B) {
	c, _ := New(WithType(Medium))
	_ = c.Prepare(core.NewProcessSpec(core.WithBlockSize(256), core.WithChannels(2)))
	buf := buffer.FromSlices(
		testutil.DeterministicNoise(1, 0.5, 256),
		testutil.DeterministicNoise(2, 0.5, 256),
	)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c.Process(buf)
	}
}
