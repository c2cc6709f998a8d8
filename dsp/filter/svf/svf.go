package svf

import (
	"fmt"
	"math"
)

// Type selects the filter response.
type Type int

const (
	// Lowpass passes content below the cutoff.
	Lowpass Type = iota
	// Bandpass passes a band around the cutoff with unity peak gain.
	Bandpass
	// Highpass passes content above the cutoff.
	Highpass
)

// maxCutoffRatio keeps tan(pi*f/fs) finite.
const maxCutoffRatio = 0.49

// Filter is a multi-channel TPT state-variable filter.
type Filter struct {
	kind       Type
	sampleRate float64
	cutoff     float64
	q          float64

	g, k         float64
	a1, a2, a3   float64
	ic1eq, ic2eq []float64
}

// New returns a filter of the given type with cutoff in Hz and resonance q.
func New(kind Type, sampleRate, cutoff, q float64, numChannels int) (*Filter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		return nil, fmt.Errorf("svf sample rate must be > 0: %f", sampleRate)
	}

	if numChannels <= 0 {
		return nil, fmt.Errorf("svf channel count must be > 0: %d", numChannels)
	}

	f := &Filter{
		kind:       kind,
		sampleRate: sampleRate,
		cutoff:     cutoff,
		q:          q,
		ic1eq:      make([]float64, numChannels),
		ic2eq:      make([]float64, numChannels),
	}
	f.update()

	return f, nil
}

// Prepare rebinds the filter to a sample rate and channel count and clears
// its state.
func (f *Filter) Prepare(sampleRate float64, numChannels int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		return fmt.Errorf("svf sample rate must be > 0: %f", sampleRate)
	}

	if numChannels <= 0 {
		return fmt.Errorf("svf channel count must be > 0: %d", numChannels)
	}

	f.sampleRate = sampleRate
	if numChannels != len(f.ic1eq) {
		f.ic1eq = make([]float64, numChannels)
		f.ic2eq = make([]float64, numChannels)
	}

	f.Reset()
	f.update()

	return nil
}

// SetCutoff sets the cutoff in Hz. It is clamped to (0, 0.49*fs].
func (f *Filter) SetCutoff(hz float64) {
	if hz == f.cutoff {
		return
	}

	f.cutoff = hz
	f.update()
}

// SetResonance sets the quality factor. Values <= 0 are treated as 1e-6.
func (f *Filter) SetResonance(q float64) {
	if q == f.q {
		return
	}

	f.q = q
	f.update()
}

// SetType switches the response without touching state.
func (f *Filter) SetType(kind Type) {
	f.kind = kind
}

// Cutoff returns the configured cutoff in Hz.
func (f *Filter) Cutoff() float64 {
	return f.cutoff
}

// NumChannels returns the channel count.
func (f *Filter) NumChannels() int {
	return len(f.ic1eq)
}

func (f *Filter) update() {
	ratio := f.cutoff / f.sampleRate
	if !(ratio > 0) {
		ratio = 1e-9
	}

	ratio = min(ratio, maxCutoffRatio)

	q := f.q
	if !(q > 1e-6) {
		q = 1e-6
	}

	f.g = math.Tan(math.Pi * ratio)
	f.k = 1 / q
	f.a1 = 1 / (1 + f.g*(f.g+f.k))
	f.a2 = f.g * f.a1
	f.a3 = f.g * f.a2
}

// ProcessSample filters one sample of channel ch.
func (f *Filter) ProcessSample(ch int, x float64) float64 {
	ic1, ic2 := f.ic1eq[ch], f.ic2eq[ch]

	v3 := x - ic2
	v1 := f.a1*ic1 + f.a2*v3
	v2 := ic2 + f.a2*ic1 + f.a3*v3

	f.ic1eq[ch] = 2*v1 - ic1
	f.ic2eq[ch] = 2*v2 - ic2

	switch f.kind {
	case Bandpass:
		return f.k * v1
	case Highpass:
		return x - f.k*v1 - v2
	default:
		return v2
	}
}

// ProcessChannel filters buf in place as channel ch.
func (f *Filter) ProcessChannel(ch int, buf []float64) {
	for i, x := range buf {
		buf[i] = f.ProcessSample(ch, x)
	}
}

// Reset clears the integrator state of every channel.
func (f *Filter) Reset() {
	clear(f.ic1eq)
	clear(f.ic2eq)
}
