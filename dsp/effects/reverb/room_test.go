package reverb

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/internal/testutil"
)

func testSpec(t testing.TB, block int) core.ProcessSpec {
	t.Helper()

	return core.NewProcessSpec(
		core.WithSampleRate(48000),
		core.WithBlockSize(block),
		core.WithChannels(2),
	)
}

func preparedRoom(t testing.TB, p Params, opts ...RoomOption) *Room {
	t.Helper()

	r, err := NewRoom(p, opts...)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Prepare(testSpec(t, 256)); err != nil {
		t.Fatal(err)
	}

	return r
}

func TestRoomSizeFloor(t *testing.T) {
	tests := []struct {
		name     string
		in       Params
		wantSize float64
		wantRT60 float64
	}{
		{"floor raises size", Params{RoomSizeMs: 5, RT60: 3}, 30, 3},
		{"large size kept", Params{RoomSizeMs: 120, RT60: 1}, 120, 1},
		{"rt60 capped", Params{RoomSizeMs: 10, RT60: 100}, 200, 20},
		{"size capped", Params{RoomSizeMs: 1000, RT60: 0.5}, 250, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRoom(tt.in)
			if err != nil {
				t.Fatal(err)
			}

			got := r.Params()
			if got.RoomSizeMs != tt.wantSize || got.RT60 != tt.wantRT60 {
				t.Fatalf("size %v rt60 %v, want %v %v", got.RoomSizeMs, got.RT60, tt.wantSize, tt.wantRT60)
			}

			if got.RoomSizeMs < got.RT60*10 {
				t.Fatalf("size %v below floor for rt60 %v", got.RoomSizeMs, got.RT60)
			}
		})
	}
}

func TestRoomSetReverbParamsKeepsFloor(t *testing.T) {
	r := preparedRoom(t, DefaultParams())

	for _, p := range []Params{
		{RoomSizeMs: 5, RT60: 2},
		{RoomSizeMs: 60, RT60: 0.1},
		{RoomSizeMs: math.NaN(), RT60: math.NaN()},
	} {
		r.SetReverbParams(p, false)

		got := r.Params()
		if got.RoomSizeMs < got.RT60*10 {
			t.Fatalf("params %+v broke the size floor", got)
		}

		if !r.Ready() {
			t.Fatal("room not ready after reconfiguring")
		}
	}
}

func TestRoomStates(t *testing.T) {
	r, err := NewRoom(DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	if r.State() != StateUninitialized || r.Ready() {
		t.Fatalf("new room: state %v ready %v", r.State(), r.Ready())
	}

	if err := r.Prepare(testSpec(t, 64)); err != nil {
		t.Fatal(err)
	}

	if r.State() != StatePrepared || !r.Ready() {
		t.Fatalf("prepared room: state %v ready %v", r.State(), r.Ready())
	}

	r.ProcessWet(buffer.New(2, 64))

	if r.State() != StateProcessing {
		t.Fatalf("state %v after processing", r.State())
	}
}

func TestRoomUnpreparedPassesThrough(t *testing.T) {
	r, err := NewRoom(DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	in := testutil.DeterministicSine(440, 48000, 0.5, 128)
	buf := buffer.FromSlices(append([]float64(nil), in...))

	r.Process(buf, 0.5)
	testutil.RequireSliceNearlyEqual(t, buf.Channel(0), in, 0)

	r.ProcessWet(buf)

	if buf.Peak(0) != 0 {
		t.Fatalf("unprepared wet path not silent: %v", buf.Peak(0))
	}
}

func TestRoomZeroInZeroOut(t *testing.T) {
	r := preparedRoom(t, ParamsFor(TypeHall, 0.7, 0.7, 480))
	buf := buffer.New(2, 256)

	for range 20 {
		buf.Clear()
		r.ProcessWet(buf)

		if buf.Peak(0) != 0 || buf.Peak(1) != 0 {
			t.Fatalf("silence produced output: %v %v", buf.Peak(0), buf.Peak(1))
		}
	}
}

func TestRoomTailDecays(t *testing.T) {
	for _, typ := range []Type{TypeRoom, TypeHall, TypePlate} {
		t.Run(typ.String(), func(t *testing.T) {
			r := preparedRoom(t, ParamsFor(typ, 0.3, 0.5, 0))
			buf := buffer.New(2, 256)

			var energies []float64
			for block := range 400 {
				buf.Clear()
				if block == 0 {
					buf.Channel(0)[0] = 1
					buf.Channel(1)[0] = 1
				}

				r.ProcessWet(buf)
				testutil.RequireFinite(t, buf.Channel(0))
				testutil.RequireFinite(t, buf.Channel(1))

				e := 0.0
				for ch := range 2 {
					for _, v := range buf.Channel(ch) {
						e += v * v
					}
				}

				energies = append(energies, e)
			}

			early := 0.0
			for _, e := range energies[:40] {
				early += e
			}

			late := 0.0
			for _, e := range energies[360:] {
				late += e
			}

			if early == 0 {
				t.Fatal("no reverb output")
			}

			if late >= early*1e-3 {
				t.Fatalf("tail did not decay: early %v late %v", early, late)
			}
		})
	}
}

// impulseResponse feeds a unit impulse at sample at into a fresh room and
// returns the left wet output over blocks of 256 samples.
func impulseResponse(t *testing.T, p Params, at, blocks int, opts ...RoomOption) []float64 {
	t.Helper()

	r := preparedRoom(t, p, opts...)
	buf := buffer.New(2, 256)
	out := make([]float64, 0, blocks*256)

	for block := range blocks {
		buf.Clear()
		if at/256 == block {
			buf.Channel(0)[at%256] = 1
			buf.Channel(1)[at%256] = 1
		}

		r.ProcessWet(buf)
		out = append(out, buf.Channel(0)...)
	}

	return out
}

func onset(x []float64) int {
	for i, v := range x {
		if v != 0 {
			return i
		}
	}

	return -1
}

func TestRoomRatioOneIsSampleExact(t *testing.T) {
	// Without resampling the wet path is time invariant to the sample, so
	// moving the input by one sample moves the output by exactly one sample.
	p := Params{RoomSizeMs: 40, RT60: 0.5, Dampening: 0.5, EarlyReflections: 1}

	a := impulseResponse(t, p, 10, 12, WithDownsampling(1))
	b := impulseResponse(t, p, 11, 12, WithDownsampling(1))

	if onset(a) < 0 {
		t.Fatal("no wet output")
	}

	testutil.RequireSliceNearlyEqual(t, b[1:], a[:len(a)-1], 0)
}

func TestRoomDownsampledRatios(t *testing.T) {
	for _, ratio := range []int{2, 4} {
		r := preparedRoom(t, ParamsFor(TypeRoom, 0.5, 0.5, 0), WithDownsampling(ratio))
		if r.Ratio() != ratio {
			t.Fatalf("ratio %d, want %d", r.Ratio(), ratio)
		}

		peak := 0.0
		for range 40 {
			buf := buffer.FromSlices(
				testutil.DeterministicSine(300, 48000, 0.5, 250),
				testutil.DeterministicSine(500, 48000, 0.5, 250),
			)

			r.ProcessWet(buf)
			testutil.RequireFinite(t, buf.Channel(0))
			peak = max(peak, buf.Peak(0), buf.Peak(1))
		}

		if peak == 0 || peak > 10 {
			t.Fatalf("ratio %d: wet peak %v", ratio, peak)
		}
	}
}

func TestRoomDiffuserRangesHalve(t *testing.T) {
	r := preparedRoom(t, Params{RoomSizeMs: 160, RT60: 1})

	prev := math.Inf(1)
	for k := range diffuserCount {
		d := r.DiffuserDelays(k)
		if float64(d[Channels-1]) >= prev {
			t.Fatalf("diffuser %d last delay %d not below previous %v", k, d[Channels-1], prev)
		}

		prev = float64(d[Channels-1])
	}

	if r.FeedbackGain() != DecayGain(160, 1) {
		t.Fatalf("feedback gain %v", r.FeedbackGain())
	}
}

func TestRoomPreDelayShiftsOnset(t *testing.T) {
	const pre = 480

	p := Params{RoomSizeMs: 40, RT60: 0.5, Dampening: 0.5, EarlyReflections: 1}
	ref := onset(impulseResponse(t, p, 0, 24))

	p.PreDelaySamples = pre
	first := onset(impulseResponse(t, p, 0, 24))

	if ref < 0 || first < 0 {
		t.Fatalf("no wet output: onsets %d and %d", ref, first)
	}

	if first < pre {
		t.Fatalf("wet onset at %d, before the pre-delay of %d", first, pre)
	}

	// A zero pre-delay still reads one sample back.
	if shift := first - ref; shift < pre-1 || shift > pre {
		t.Fatalf("pre-delay shifted the onset by %d, want %d", shift, pre)
	}
}

func TestRoomMixIsBalanced(t *testing.T) {
	tests := []struct {
		mix, dry, wet float64
	}{
		{0, 1, 0},
		{0.25, 1, 0.5},
		{0.5, 1, 1},
		{0.75, 0.5, 1},
		{1, 0, 1},
		{math.NaN(), 1, 0},
	}

	for _, tt := range tests {
		dry, wet := BalancedGains(tt.mix)
		if dry != tt.dry || wet != tt.wet {
			t.Fatalf("BalancedGains(%v) = %v, %v want %v, %v", tt.mix, dry, wet, tt.dry, tt.wet)
		}
	}

	r := preparedRoom(t, DefaultParams())
	in := testutil.DeterministicSine(220, 48000, 0.5, 256)
	buf := buffer.FromSlices(append([]float64(nil), in...), append([]float64(nil), in...))

	r.Process(buf, 0)
	testutil.RequireSliceNearlyEqual(t, buf.Channel(0), in, 1e-15)
}

func TestRoomResetClearsTail(t *testing.T) {
	r := preparedRoom(t, DefaultParams())
	buf := buffer.FromSlices(testutil.DC(1, 256), testutil.DC(1, 256))
	r.ProcessWet(buf)

	r.Reset()

	buf.Clear()
	r.ProcessWet(buf)

	if buf.Peak(0) != 0 {
		t.Fatalf("tail survived reset: %v", buf.Peak(0))
	}
}

func TestRoomOptionsValidation(t *testing.T) {
	for _, opt := range []RoomOption{
		WithDownsampling(3),
		WithMaxRoomSizeMs(1),
		WithMaxPreDelayMs(0),
	} {
		if _, err := NewRoom(DefaultParams(), opt); err == nil {
			t.Fatal("expected option error")
		}
	}

	r, err := NewRoom(DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Prepare(core.ProcessSpec{}); err == nil {
		t.Fatal("expected error for invalid spec")
	}

	if r.State() != StateUninitialized {
		t.Fatal("failed prepare changed state")
	}
}

func BenchmarkRoom(b *testing.B) {
	for _, ratio := range []int{1, 2, 4} {
		b.Run(fmt.Sprintf("ratio%d", ratio), func(b *testing.B) {
			r, _ := NewRoom(DefaultParams(), WithDownsampling(ratio))
			_ = r.Prepare(testSpec(b, 256))

			buf := buffer.FromSlices(
				testutil.DeterministicNoise(1, 0.5, 256),
				testutil.DeterministicNoise(2, 0.5, 256),
			)

			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				r.ProcessWet(buf)
			}
		})
	}
}
