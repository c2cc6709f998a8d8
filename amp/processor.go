package amp

import (
	"sync/atomic"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/param"
)

// Processor is the top-level amp a host drives: input gain, the chain of
// its Kind, smoothed output gain, bypass and meters.
type Processor struct {
	cfg   config
	src   param.Source
	chain *Chain

	prepared atomic.Bool
	bypassed bool

	inputGain  float64
	outputGain *param.Smoothed
	gains      []float64

	maxBlock int
	chunk    buffer.Audio

	meters meterBank
}

// New returns an unprepared processor for kind reading from src.
func New(kind Kind, src param.Source, opts ...Option) (*Processor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	chain, err := NewChain(kind, src, cfg)
	if err != nil {
		return nil, err
	}

	return &Processor{
		cfg:        cfg,
		src:        src,
		chain:      chain,
		inputGain:  1,
		outputGain: param.NewSmoothed(param.RampLinear, 1),
	}, nil
}

// Kind returns the chain kind.
func (p *Processor) Kind() Kind { return p.chain.Kind() }

// Chain returns the processor's stage chain.
func (p *Processor) Chain() *Chain { return p.chain }

// Prepare validates spec, prepares every stage and sizes scratch buffers.
func (p *Processor) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	p.prepared.Store(false)

	if err := p.chain.Prepare(spec); err != nil {
		return err
	}

	p.maxBlock = int(spec.MaximumBlockSize)
	p.gains = core.EnsureLen(p.gains, p.maxBlock)
	p.inputGain = core.DBToLinear(p.src.Float(ParamInputGain))
	p.outputGain.Reset(spec.SampleRate, p.cfg.outputRampMs)
	p.outputGain.SetCurrentAndTarget(core.DBToLinear(p.src.Float(ParamOutputGain)))
	p.bypassed = p.src.Choice(ParamBypass) == 1

	p.prepared.Store(true)

	return nil
}

// Ready reports whether Prepare succeeded and the reverb is ready.
func (p *Processor) Ready() bool {
	return p.prepared.Load() && p.chain.Reverb().Ready()
}

// Process runs one block in place. An unprepared or bypassed processor
// passes buf through. Blocks longer than the prepared maximum are split
// into chunks of at most that size.
func (p *Processor) Process(buf *buffer.Audio) {
	if !p.prepared.Load() {
		return
	}

	p.meters.blocks.Add(1)
	p.publishPeaks(p.meters.input[:], buf)

	if p.src.Choice(ParamBypass) == 1 {
		p.bypassed = true
		p.publishPeaks(p.meters.output[:], buf)

		return
	}

	if p.bypassed {
		p.bypassed = false
		p.chain.Reset()
	}

	if n := buf.NumSamples(); n > p.maxBlock {
		for off := 0; off < n; off += p.maxBlock {
			p.chunk.SetView(buf, off, p.maxBlock)
			p.processBlock(&p.chunk)
		}
	} else {
		p.processBlock(buf)
	}

	storeFloat(&p.meters.gr, core.LinearToDB(p.chain.GainReduction()))
	p.publishPeaks(p.meters.output[:], buf)
}

func (p *Processor) processBlock(buf *buffer.Audio) {
	g := core.DBToLinear(p.src.Float(ParamInputGain))
	for ch := range buf.NumChannels() {
		buf.ApplyGainRamp(ch, p.inputGain, g)
	}

	p.inputGain = g

	p.chain.Process(buf)
	p.applyOutputGain(buf)
}

func (p *Processor) applyOutputGain(buf *buffer.Audio) {
	p.outputGain.SetTarget(core.DBToLinear(p.src.Float(ParamOutputGain)))

	if !p.outputGain.IsSmoothing() {
		buf.ApplyGain(p.outputGain.Target())
		return
	}

	n := min(buf.NumSamples(), len(p.gains))
	gains := p.gains[:n]

	for i := range gains {
		gains[i] = p.outputGain.Next()
	}

	for ch := range buf.NumChannels() {
		buf.MultiplyBy(ch, gains)
	}
}

func (p *Processor) publishPeaks(dst []atomic.Uint64, buf *buffer.Audio) {
	for ch := range min(len(dst), buf.NumChannels()) {
		storeFloat(&dst[ch], buf.Peak(ch))
	}

	// Mono feeds both meters.
	if buf.NumChannels() == 1 {
		dst[1].Store(dst[0].Load())
	}
}

// Reset clears all stage state and snaps the gains to their targets.
func (p *Processor) Reset() {
	if !p.prepared.Load() {
		return
	}

	p.chain.Reset()
	p.inputGain = core.DBToLinear(p.src.Float(ParamInputGain))
	p.outputGain.SetCurrentAndTarget(core.DBToLinear(p.src.Float(ParamOutputGain)))
}

// Meters returns the latest levels. Safe from any goroutine.
func (p *Processor) Meters() Meters {
	return p.meters.snapshot()
}

// Drain recycles retired reverb rooms. Call it periodically from the
// control thread: after a reverb crossfade, further type, decay or size
// changes stay pending until Drain has returned the retired room.
func (p *Processor) Drain() int {
	return p.chain.Reverb().Drain()
}
