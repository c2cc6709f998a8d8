// Package signal provides deterministic test sources for driving the amp:
// a Karplus-Strong plucked string and a phase-continuous sine.
package signal

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	minPluckFreq  = 20.0
	defaultDecay  = 0.996
	defaultBright = 0.5
	defaultSeed   = 1
)

// PluckOption configures a Pluck.
type PluckOption func(*pluckConfig)

type pluckConfig struct {
	decay  float64
	bright float64
	seed   uint64
}

// WithDecay sets the per-period loop gain in (0, 1).
func WithDecay(decay float64) PluckOption {
	return func(c *pluckConfig) {
		c.decay = decay
	}
}

// WithBrightness sets the excitation brightness in [0, 1]. One leaves the
// noise burst white; lower values low-pass it.
func WithBrightness(bright float64) PluckOption {
	return func(c *pluckConfig) {
		c.bright = bright
	}
}

// WithSeed sets the excitation noise seed.
func WithSeed(seed uint64) PluckOption {
	return func(c *pluckConfig) {
		c.seed = seed
	}
}

// Pluck is a Karplus-Strong string: a noise burst circulating through a
// delay line with a two-point averaging loop filter.
type Pluck struct {
	sampleRate float64
	cfg        pluckConfig
	rng        *rand.Rand

	line   []float64
	period int
	pos    int
}

// NewPluck returns a silent string voice for sampleRate.
func NewPluck(sampleRate float64, opts ...PluckOption) (*Pluck, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("pluck sample rate must be > 0: %f", sampleRate)
	}

	cfg := pluckConfig{decay: defaultDecay, bright: defaultBright, seed: defaultSeed}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.decay <= 0 || cfg.decay >= 1 || math.IsNaN(cfg.decay) {
		return nil, fmt.Errorf("pluck decay must be in (0, 1): %f", cfg.decay)
	}

	if cfg.bright < 0 || cfg.bright > 1 || math.IsNaN(cfg.bright) {
		return nil, fmt.Errorf("pluck brightness must be in [0, 1]: %f", cfg.bright)
	}

	return &Pluck{
		sampleRate: sampleRate,
		cfg:        cfg,
		rng:        rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15)),
		line:       make([]float64, int(math.Ceil(sampleRate/minPluckFreq))+1),
	}, nil
}

// Trigger restarts the string at freqHz with peak excitation velocity.
func (p *Pluck) Trigger(freqHz, velocity float64) error {
	if freqHz < minPluckFreq || freqHz >= p.sampleRate/2 || math.IsNaN(freqHz) {
		return fmt.Errorf("pluck frequency must be in [%g, %g): %f", minPluckFreq, p.sampleRate/2, freqHz)
	}

	p.period = max(2, int(math.Round(p.sampleRate/freqHz)))
	p.pos = 0

	// One-pole smoothing of the burst sets the attack colour.
	a := 0.05 + 0.95*p.cfg.bright
	prev := 0.0

	for i := range p.period {
		prev += a * (p.rng.Float64()*2 - 1 - prev)
		p.line[i] = velocity * prev
	}

	// Remove the burst's DC so the string settles at zero.
	mean := 0.0
	for _, v := range p.line[:p.period] {
		mean += v
	}

	mean /= float64(p.period)
	for i := range p.line[:p.period] {
		p.line[i] -= mean
	}

	return nil
}

// Period returns the loop length in samples, zero before the first Trigger.
func (p *Pluck) Period() int {
	return p.period
}

// Next returns the next output sample.
func (p *Pluck) Next() float64 {
	if p.period == 0 {
		return 0
	}

	out := p.line[p.pos]
	next := p.pos + 1

	if next >= p.period {
		next = 0
	}

	p.line[p.pos] = p.cfg.decay * 0.5 * (out + p.line[next])
	p.pos = next

	return out
}

// Add mixes the next len(dst) samples into dst.
func (p *Pluck) Add(dst []float64) {
	if p.period == 0 {
		return
	}

	for i := range dst {
		dst[i] += p.Next()
	}
}

// Reset silences the string.
func (p *Pluck) Reset() {
	clear(p.line)
	p.period = 0
	p.pos = 0
}
