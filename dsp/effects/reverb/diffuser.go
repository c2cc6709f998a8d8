package reverb

import (
	"fmt"
	"math/rand/v2"

	"github.com/cwbudde/algo-amp/dsp/delay"
	"github.com/cwbudde/algo-amp/dsp/interp"
	"github.com/cwbudde/algo-amp/dsp/mix"
)

// Channels is the internal channel count of the diffusion and feedback
// stages.
const Channels = 8

// Diffuser scatters an 8-channel signal through randomly delayed taps and a
// Hadamard mix. Delays and polarity flips are drawn from a PRNG seeded with
// the same seed on every Configure, so equal seeds and ranges give equal
// structures.
type Diffuser struct {
	seed  uint64
	lines *delay.Line

	delays     [Channels]int
	inversions [Channels]bool
	rangeLen   float64
}

// NewDiffuser returns a diffuser able to hold delays up to maxDelay samples.
func NewDiffuser(seed uint64, maxDelay int) (*Diffuser, error) {
	lines, err := delay.New(Channels, maxDelay, delay.WithMode(interp.None))
	if err != nil {
		return nil, fmt.Errorf("diffuser: %w", err)
	}

	d := &Diffuser{seed: seed, lines: lines}
	d.Configure(float64(maxDelay))

	return d, nil
}

// Configure draws channel c's delay from slice c of [0, rangeSamples) and a
// polarity flip per channel. It does not allocate.
func (d *Diffuser) Configure(rangeSamples float64) {
	rangeSamples = min(max(rangeSamples, Channels), float64(d.lines.MaxDelay()))
	d.rangeLen = rangeSamples

	var src rand.PCG
	src.Seed(d.seed, d.seed^0x9e3779b97f4a7c15)

	slice := rangeSamples / Channels
	for c := range Channels {
		u := float64(src.Uint64()>>11) / (1 << 53)
		lo := slice * float64(c)

		d.delays[c] = max(1, int(lo+u*slice))
		d.inversions[c] = src.Uint64()&1 == 1
	}
}

// Range returns the configured delay range in samples.
func (d *Diffuser) Range() float64 { return d.rangeLen }

// Delays returns the per-channel tap delays in samples.
func (d *Diffuser) Delays() [Channels]int { return d.delays }

// Inversions returns the per-channel polarity flips.
func (d *Diffuser) Inversions() [Channels]bool { return d.inversions }

// Process diffuses block in place. Every channel slice must hold at least n
// samples.
func (d *Diffuser) Process(block *[Channels][]float64, n int) {
	var v [Channels]float64

	for i := range n {
		for c := range Channels {
			v[c] = d.lines.Read(c, d.delays[c])
			d.lines.Push(c, block[c][i])
		}

		mix.Hadamard(v[:])

		for c := range Channels {
			block[c][i] = v[c]
		}
	}

	for c, flip := range d.inversions {
		if !flip {
			continue
		}

		ch := block[c][:n]
		for i := range ch {
			ch[i] = -ch[i]
		}
	}
}

// Reset clears the taps.
func (d *Diffuser) Reset() {
	d.lines.Reset()
}
