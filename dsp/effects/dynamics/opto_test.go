package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/internal/testutil"
)

func newPreparedOpto(t *testing.T, profile Profile, channels int, opts ...OptoOption) *Opto {
	t.Helper()

	o, err := NewOpto(profile, opts...)
	if err != nil {
		t.Fatal(err)
	}

	spec := core.NewProcessSpec(core.WithSampleRate(48000), core.WithBlockSize(512), core.WithChannels(channels))
	if err := o.Prepare(spec); err != nil {
		t.Fatal(err)
	}

	return o
}

// runSine processes one second of a 200 Hz sine and returns the output peak
// over the final 100 ms.
func runSine(o *Opto, amplitude float64) float64 {
	const sr, block = 48000, 512

	sine := testutil.DeterministicSine(200, sr, amplitude, sr)
	peak := 0.0

	for off := 0; off+block <= len(sine); off += block {
		buf := buffer.FromSlices(append([]float64(nil), sine[off:off+block]...))
		o.Process(buf)

		if off >= sr-4800 {
			peak = math.Max(peak, buf.Peak(0))
		}
	}

	return peak
}

func TestOptoAmountIsMonotonic(t *testing.T) {
	for _, profile := range []Profile{ProfileGuitar, ProfileBass, ProfileChannel} {
		t.Run(profile.String(), func(t *testing.T) {
			prev := math.Inf(1)

			for _, amount := range []float64{0, 0.1, 0.25, 0.5, 0.75, 1} {
				o := newPreparedOpto(t, profile, 1)
				o.SetAmount(amount)

				peak := runSine(o, 0.5)
				if peak > prev+1e-12 {
					t.Fatalf("amount %v raised peak: %v > %v", amount, peak, prev)
				}

				prev = peak
			}
		})
	}
}

func TestOptoCompressesAboveThreshold(t *testing.T) {
	o := newPreparedOpto(t, ProfileGuitar, 1)
	o.SetAmount(1)

	if peak := runSine(o, 0.5); peak >= 0.45 {
		t.Fatalf("peak %v shows no gain reduction", peak)
	}

	if gr := o.GainReduction(); gr >= 1 {
		t.Fatalf("GainReduction() = %v", gr)
	}

	if gr := o.GainReduction(); gr != 1 {
		t.Fatalf("GainReduction not cleared: %v", gr)
	}
}

func TestReductionLaw(t *testing.T) {
	tests := []struct {
		name  string
		level float64
		want  float64
	}{
		{"at threshold", 1, 1},
		{"below threshold", 0.5, 1},
		{"12 dB over", core.DBToLinear(12), 0.0024717},
		{"one env unit", math.Pow(10, 1/envScale), 1 / math.Sqrt(10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reduction(envelope(tt.level, 1))
			if math.Abs(got-tt.want) > 1e-5 {
				t.Fatalf("gain %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptoZeroAmountIsTransparent(t *testing.T) {
	o := newPreparedOpto(t, ProfileGuitar, 1)

	in := testutil.DeterministicSine(200, 48000, 0.5, 512)
	buf := buffer.FromSlices(append([]float64(nil), in...))
	o.Process(buf)

	testutil.RequireSliceNearlyEqual(t, buf.Channel(0), in, 1e-12)
}

func TestOptoQuietSignalUntouched(t *testing.T) {
	o := newPreparedOpto(t, ProfileChannel, 1)
	o.SetAmount(0.5)

	// -60 dBFS sits below the -18 dB threshold.
	if peak := runSine(o, 0.001); math.Abs(peak-0.001) > 1e-6 {
		t.Fatalf("quiet peak %v, want 0.001", peak)
	}
}

func TestOptoLinkedAppliesSameGain(t *testing.T) {
	o := newPreparedOpto(t, ProfileGuitar, 2, WithLinked(true))
	o.SetAmount(1)

	loud := testutil.DeterministicSine(200, 48000, 0.5, 512)
	quiet := testutil.DeterministicSine(200, 48000, 0.05, 512)

	for range 40 {
		buf := buffer.FromSlices(append([]float64(nil), loud...), append([]float64(nil), quiet...))
		o.Process(buf)

		l, r := buf.Channel(0), buf.Channel(1)
		for i := range l {
			gl := l[i] / loud[i]
			gr := r[i] / quiet[i]

			if loud[i] != 0 && math.Abs(gl-gr) > 1e-9 {
				t.Fatalf("sample %d: gains differ %v vs %v", i, gl, gr)
			}
		}
	}

	if !o.Linked() {
		t.Fatal("Linked() = false")
	}
}

func TestOptoUnlinkedChannelsIndependent(t *testing.T) {
	o := newPreparedOpto(t, ProfileGuitar, 2)
	o.SetAmount(1)

	loud := testutil.DeterministicSine(200, 48000, 0.5, 512)
	silent := make([]float64, 512)

	for range 20 {
		buf := buffer.FromSlices(append([]float64(nil), loud...), append([]float64(nil), silent...))
		o.Process(buf)

		for i, v := range buf.Channel(1) {
			if v != 0 {
				t.Fatalf("silent channel[%d] = %v", i, v)
			}
		}
	}
}

func TestOptoResetClearsDetector(t *testing.T) {
	o := newPreparedOpto(t, ProfileGuitar, 1)
	o.SetAmount(1)
	runSine(o, 0.8)

	o.Reset()

	in := testutil.DeterministicSine(200, 48000, 0.001, 64)
	buf := buffer.FromSlices(append([]float64(nil), in...))
	o.Process(buf)

	testutil.RequireSliceNearlyEqual(t, buf.Channel(0), in, 1e-12)
}

func TestOptoValidation(t *testing.T) {
	if _, err := NewOpto(Profile(9)); err == nil {
		t.Fatal("expected error for unknown profile")
	}

	if _, err := NewOpto(ProfileGuitar, WithSidechainHz(1)); err == nil {
		t.Fatal("expected error for low sidechain frequency")
	}

	if _, err := NewOpto(ProfileGuitar, WithMakeupGainDB(40)); err == nil {
		t.Fatal("expected error for large makeup gain")
	}

	o, err := NewOpto(ProfileChannel)
	if err != nil {
		t.Fatal(err)
	}

	o.SetAmount(2)
	if o.Amount() != 1 {
		t.Fatalf("Amount() = %v, want 1", o.Amount())
	}

	o.SetAmount(math.NaN())
	if o.Amount() != 1 {
		t.Fatal("NaN changed the amount")
	}
}

func TestOptoUnpreparedPassesThrough(t *testing.T) {
	o, err := NewOpto(ProfileBass)
	if err != nil {
		t.Fatal(err)
	}

	o.SetAmount(1)

	in := testutil.DeterministicSine(80, 48000, 0.9, 128)
	buf := buffer.FromSlices(append([]float64(nil), in...))
	o.Process(buf)

	testutil.RequireSliceNearlyEqual(t, buf.Channel(0), in, 0)
}
