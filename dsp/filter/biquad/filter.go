package biquad

import "github.com/cwbudde/algo-amp/dsp/buffer"

// Filter runs one coefficient set over several channels with independent
// state per channel.
type Filter struct {
	coeffs Coefficients
	state  [][2]float64
}

// NewFilter returns a filter for numChannels channels.
func NewFilter(numChannels int, c Coefficients) *Filter {
	return &Filter{
		coeffs: c,
		state:  make([][2]float64, max(numChannels, 0)),
	}
}

// Prepare resizes the per-channel state and clears it.
func (f *Filter) Prepare(numChannels int) {
	if numChannels != len(f.state) {
		f.state = make([][2]float64, max(numChannels, 0))
		return
	}

	f.Reset()
}

// NumChannels returns the number of channel states.
func (f *Filter) NumChannels() int {
	return len(f.state)
}

// Coefficients returns the active coefficient set.
func (f *Filter) Coefficients() Coefficients {
	return f.coeffs
}

// SetCoefficients swaps coefficients while keeping channel state.
func (f *Filter) SetCoefficients(c Coefficients) {
	f.coeffs = c
}

// ProcessSample filters one sample of channel ch.
func (f *Filter) ProcessSample(ch int, x float64) float64 {
	st := &f.state[ch]
	c := &f.coeffs

	y := c.B0*x + st[0]
	st[0] = c.B1*x - c.A1*y + st[1]
	st[1] = c.B2*x - c.A2*y

	return y
}

// ProcessChannel filters buf in place as channel ch.
func (f *Filter) ProcessChannel(ch int, buf []float64) {
	st := &f.state[ch]
	st[0], st[1] = processBlock(f.coeffs, st[0], st[1], buf)
}

// Process filters every channel of b that has state. Extra channels in b
// are left untouched.
func (f *Filter) Process(b *buffer.Audio) {
	n := min(b.NumChannels(), len(f.state))
	for ch := range n {
		f.ProcessChannel(ch, b.Channel(ch))
	}
}

// Reset clears all channel states.
func (f *Filter) Reset() {
	clear(f.state)
}
