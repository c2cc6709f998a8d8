package level

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/internal/testutil"
)

const (
	testRate  = 48000.0
	testBlock = 480
)

func preparedMeter(t testing.TB, channels int) *Meter {
	t.Helper()

	m := NewMeter()
	spec := core.NewProcessSpec(
		core.WithSampleRate(testRate),
		core.WithBlockSize(testBlock),
		core.WithChannels(channels),
	)

	if err := m.Prepare(spec); err != nil {
		t.Fatal(err)
	}

	return m
}

// feed runs sig through m in blocks, copying it to every channel.
func feed(m *Meter, channels int, sig []float64) {
	buf := buffer.New(channels, testBlock)

	for off := 0; off < len(sig); off += testBlock {
		n := min(testBlock, len(sig)-off)
		buf.SetNumSamples(n)

		for ch := range channels {
			copy(buf.Channel(ch), sig[off:off+n])
		}

		m.Process(buf)
	}
}

func TestMeter_Sine(t *testing.T) {
	// A full-scale 1 kHz sine reads about -3.03 LUFS after K-weighting.
	m := preparedMeter(t, 1)
	m.StartIntegration()
	feed(m, 1, testutil.DeterministicSine(1000, testRate, 1, int(testRate*4)))

	const want = -3.03

	tests := []struct {
		name string
		got  float64
	}{
		{"momentary", m.Momentary()},
		{"short-term", m.ShortTerm()},
		{"integrated", m.Integrated()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-want) > 0.2 {
				t.Fatalf("got %.3f LUFS, want %.2f", tt.got, want)
			}
		})
	}
}

func TestMeter_StereoAddsThreeDB(t *testing.T) {
	sig := testutil.DeterministicSine(1000, testRate, 0.5, int(testRate))

	mono := preparedMeter(t, 1)
	feed(mono, 1, sig)

	stereo := preparedMeter(t, 2)
	feed(stereo, 2, sig)

	if d := stereo.Momentary() - mono.Momentary(); math.Abs(d-3.01) > 0.05 {
		t.Fatalf("stereo - mono = %.3f dB, want 3.01", d)
	}
}

func TestMeter_SilenceReadsFloor(t *testing.T) {
	m := preparedMeter(t, 2)
	m.StartIntegration()
	feed(m, 2, make([]float64, int(testRate)))

	if m.Momentary() != Floor || m.ShortTerm() != Floor || m.Integrated() != Floor {
		t.Fatalf("silence: %v %v %v", m.Momentary(), m.ShortTerm(), m.Integrated())
	}

	if !math.IsInf(m.PeakDB(0), -1) {
		t.Fatalf("silent peak = %v dB", m.PeakDB(0))
	}
}

func TestMeter_IntegratedIgnoresGatedSilence(t *testing.T) {
	loud := testutil.DeterministicSine(1000, testRate, 1, int(testRate*2))

	ref := preparedMeter(t, 1)
	ref.StartIntegration()
	feed(ref, 1, loud)

	m := preparedMeter(t, 1)
	m.StartIntegration()
	feed(m, 1, loud)
	feed(m, 1, make([]float64, int(testRate*2)))

	if d := math.Abs(m.Integrated() - ref.Integrated()); d > 0.5 {
		t.Fatalf("integrated %.2f vs %.2f: silence was not gated", m.Integrated(), ref.Integrated())
	}

	if m.Momentary() != Floor {
		t.Fatalf("momentary after silence = %v", m.Momentary())
	}
}

func TestMeter_Peak(t *testing.T) {
	m := preparedMeter(t, 2)
	buf := buffer.New(2, testBlock)
	buf.Channel(0)[10] = -0.5
	buf.Channel(1)[20] = 0.25

	m.Process(buf)

	if m.Peak(0) != 0.5 || m.Peak(1) != 0.25 {
		t.Fatalf("peaks = %v %v", m.Peak(0), m.Peak(1))
	}

	if got := m.PeakDB(0); math.Abs(got+6.0206) > 1e-3 {
		t.Fatalf("PeakDB = %v, want -6.02", got)
	}

	if m.Peak(5) != 0 {
		t.Fatal("out of range channel should read 0")
	}

	m.Reset()

	if m.Peak(0) != 0 {
		t.Fatal("Reset did not clear peaks")
	}
}

func TestMeter_DoesNotModifyInput(t *testing.T) {
	m := preparedMeter(t, 1)
	in := testutil.DeterministicNoise(9, 0.8, testBlock)

	buf := buffer.FromSlices(append([]float64(nil), in...))
	m.Process(buf)
	testutil.RequireSliceNearlyEqual(t, buf.Channel(0), in, 0)
}

func TestMeter_Unprepared(t *testing.T) {
	m := NewMeter()
	m.Process(buffer.New(1, 64))
	m.Reset()

	if m.Momentary() != Floor || m.Integrated() != Floor {
		t.Fatal("unprepared meter should read Floor")
	}

	if err := m.Prepare(core.ProcessSpec{}); err == nil {
		t.Fatal("expected error for zero spec")
	}
}

func BenchmarkMeterStereo(b *testing.B) {
	m := preparedMeter(b, 2)
	buf := buffer.New(2, testBlock)
	copy(buf.Channel(0), testutil.DeterministicNoise(1, 0.5, testBlock))
	copy(buf.Channel(1), testutil.DeterministicNoise(2, 0.5, testBlock))

	b.ResetTimer()

	for range b.N {
		m.Process(buf)
	}
}
