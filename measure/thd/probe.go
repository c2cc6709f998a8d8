package thd

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/buffer"
)

// Processor is a block processor under test.
type Processor interface {
	Process(buf *buffer.Audio)
}

// Probe drives processors with a bin-centred sine and analyzes channel 0 of
// the settled output.
type Probe struct {
	calc   *Calculator
	block  int
	settle int

	buf     *buffer.Audio
	capture []float64
}

// NewProbe returns a probe analyzing with cfg. The fundamental is snapped to
// the nearest bin so the tone needs no leakage correction; settle samples
// are rendered and discarded before the analysis frame.
func NewProbe(cfg Config, block, settle int) (*Probe, error) {
	if block <= 0 {
		return nil, fmt.Errorf("thd probe block size must be > 0: %d", block)
	}

	if settle < 0 {
		return nil, fmt.Errorf("thd probe settle must be >= 0: %d", settle)
	}

	if cfg.FundamentalFreq <= 0 {
		return nil, fmt.Errorf("thd probe fundamental must be > 0: %f", cfg.FundamentalFreq)
	}

	if cfg.FFTSize > 0 && cfg.SampleRate > 0 {
		binHz := cfg.SampleRate / float64(cfg.FFTSize)
		cfg.FundamentalFreq = max(1, math.Round(cfg.FundamentalFreq/binHz)) * binHz
	}

	calc, err := NewCalculator(cfg)
	if err != nil {
		return nil, err
	}

	return &Probe{
		calc:    calc,
		block:   block,
		settle:  settle,
		buf:     buffer.New(1, block),
		capture: make([]float64, calc.cfg.FFTSize),
	}, nil
}

// Frequency returns the bin-centred test frequency.
func (p *Probe) Frequency() float64 { return p.calc.cfg.FundamentalFreq }

// Measure runs a sine of the given peak amplitude through proc and returns
// the distortion of its output.
func (p *Probe) Measure(proc Processor, amplitude float64) Result {
	cfg := p.calc.cfg
	step := 2 * math.Pi * cfg.FundamentalFreq / cfg.SampleRate
	total := p.settle + len(p.capture)

	for pos := 0; pos < total; pos += p.block {
		n := min(p.block, total-pos)
		p.buf.SetNumSamples(n)

		data := p.buf.Channel(0)
		for i := range data {
			data[i] = amplitude * math.Sin(step*float64(pos+i))
		}

		proc.Process(p.buf)

		for i, v := range data {
			if k := pos + i - p.settle; k >= 0 {
				p.capture[k] = v
			}
		}
	}

	return p.calc.AnalyzeSignal(p.capture)
}
