package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync/atomic"

	"github.com/cwbudde/algo-amp/amp"
	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/signal"
	"github.com/cwbudde/algo-amp/measure/level"
)

const bytesPerSample = 4

// Open-string tunings in Hz, low to high.
var (
	guitarTuning = []float64{82.41, 110.00, 146.83, 196.00, 246.94, 329.63}
	bassTuning   = []float64{41.20, 55.00, 73.42, 98.00, 123.47, 164.81}
)

// engine renders plucked strings through an amp.Processor. Read runs on the
// audio callback; Pluck may be called from any goroutine.
type engine struct {
	proc     *amp.Processor
	voices   []*signal.Pluck
	tuning   []float64
	velocity float64

	pending  atomic.Uint32
	loudness atomic.Uint64

	meter *level.Meter
	log   *slog.Logger

	block    *buffer.Audio
	frames   []float32
	channels int
}

func newEngine(proc *amp.Processor, spec core.ProcessSpec, seed uint64, logger *slog.Logger) (*engine, error) {
	tuning := guitarTuning
	if proc.Kind() == amp.KindBass {
		tuning = bassTuning
	}

	e := &engine{
		proc:     proc,
		tuning:   slices.Clone(tuning),
		velocity: 0.5,
		channels: int(spec.NumChannels),
		block:    buffer.New(int(spec.NumChannels), int(spec.MaximumBlockSize)),
		frames:   make([]float32, int(spec.MaximumBlockSize)*int(spec.NumChannels)),
		meter:    level.NewMeter(),
		log:      logger,
	}

	if err := e.meter.Prepare(spec); err != nil {
		return nil, err
	}

	e.loudness.Store(math.Float64bits(level.Floor))

	for i := range tuning {
		v, err := signal.NewPluck(spec.SampleRate, signal.WithSeed(seed+uint64(i)), signal.WithBrightness(0.7))
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", i+1, err)
		}

		e.voices = append(e.voices, v)
	}

	return e, nil
}

// Pluck requests string i (0-based) on the next rendered block.
func (e *engine) Pluck(i int) {
	if i < 0 || i >= len(e.voices) {
		return
	}

	for {
		old := e.pending.Load()
		if e.pending.CompareAndSwap(old, old|1<<uint(i)) {
			return
		}
	}
}

// Strum requests every string at once.
func (e *engine) Strum() {
	e.pending.Store(1<<uint(len(e.voices)) - 1)
}

func (e *engine) triggerPending() {
	mask := e.pending.Swap(0)
	for i, v := range e.voices {
		if mask&(1<<uint(i)) != 0 {
			if err := v.Trigger(e.tuning[i], e.velocity); err != nil {
				e.log.Warn("pluck failed", "string", i+1, "err", err)
			}
		}
	}
}

// render fills the block with up to n frames of processed audio.
func (e *engine) render(n int) {
	e.triggerPending()
	e.block.SetNumSamples(n)
	e.block.Clear()

	first := e.block.Channel(0)
	for _, v := range e.voices {
		v.Add(first)
	}

	for ch := 1; ch < e.channels; ch++ {
		copy(e.block.Channel(ch), first)
	}

	e.proc.Process(e.block)
	e.meter.Process(e.block)
	e.loudness.Store(math.Float64bits(e.meter.Momentary()))
}

// Loudness returns the momentary output loudness in LUFS.
func (e *engine) Loudness() float64 {
	return math.Float64frombits(e.loudness.Load())
}

// Read implements io.Reader for oto with interleaved float32 LE frames.
func (e *engine) Read(p []byte) (int, error) {
	frameBytes := e.channels * bytesPerSample
	total := len(p) / frameBytes
	off := 0

	for total > 0 {
		n := min(total, e.block.MaxSamples())
		e.render(n)

		written := e.block.Interleave(e.frames)
		for _, s := range e.frames[:written] {
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(s))
			off += bytesPerSample
		}

		total -= n
	}

	clear(p[off:])

	return len(p), nil
}
