// Package onepole provides first-order low-pass, high-pass and all-pass
// filters with per-channel state, plus the time-constant helpers used by
// envelope followers.
package onepole

import "math"

// Alpha returns the smoothing factor 1 - exp(-2*pi*fc/fs) of a one-pole
// low-pass at cutoffHz. Non-positive inputs yield 1 (no smoothing).
func Alpha(cutoffHz, sampleRate float64) float64 {
	if cutoffHz <= 0 || sampleRate <= 0 {
		return 1
	}

	return 1 - math.Exp(-2*math.Pi*cutoffHz/sampleRate)
}

// TimeCoefficient returns the per-sample decay exp(-1/(t*fs)) of a follower
// with time constant timeMs. Non-positive times yield 0 (instant).
func TimeCoefficient(timeMs, sampleRate float64) float64 {
	if timeMs <= 0 || sampleRate <= 0 {
		return 0
	}

	return math.Exp(-1000 / (timeMs * sampleRate))
}

// LowPass is a multi-channel one-pole low-pass.
type LowPass struct {
	alpha float64
	state []float64
}

// NewLowPass returns a low-pass at cutoffHz for numChannels channels.
func NewLowPass(cutoffHz, sampleRate float64, numChannels int) *LowPass {
	return &LowPass{
		alpha: Alpha(cutoffHz, sampleRate),
		state: make([]float64, max(numChannels, 1)),
	}
}

// SetCutoff retunes the filter.
func (f *LowPass) SetCutoff(cutoffHz, sampleRate float64) {
	f.alpha = Alpha(cutoffHz, sampleRate)
}

// ProcessSample filters one sample of channel ch.
func (f *LowPass) ProcessSample(ch int, x float64) float64 {
	f.state[ch] += f.alpha * (x - f.state[ch])
	return f.state[ch]
}

// Reset clears all channel states.
func (f *LowPass) Reset() {
	clear(f.state)
}

// HighPass is a multi-channel one-pole high-pass, the complement of LowPass.
type HighPass struct {
	lp LowPass
}

// NewHighPass returns a high-pass at cutoffHz for numChannels channels.
func NewHighPass(cutoffHz, sampleRate float64, numChannels int) *HighPass {
	return &HighPass{lp: *NewLowPass(cutoffHz, sampleRate, numChannels)}
}

// SetCutoff retunes the filter.
func (f *HighPass) SetCutoff(cutoffHz, sampleRate float64) {
	f.lp.SetCutoff(cutoffHz, sampleRate)
}

// ProcessSample filters one sample of channel ch.
func (f *HighPass) ProcessSample(ch int, x float64) float64 {
	return x - f.lp.ProcessSample(ch, x)
}

// Reset clears all channel states.
func (f *HighPass) Reset() {
	f.lp.Reset()
}

// AllPass is a multi-channel first-order all-pass whose phase passes -90
// degrees at the cutoff.
type AllPass struct {
	a     float64
	state [][2]float64
}

// NewAllPass returns an all-pass at cutoffHz for numChannels channels.
func NewAllPass(cutoffHz, sampleRate float64, numChannels int) *AllPass {
	f := &AllPass{state: make([][2]float64, max(numChannels, 1))}
	f.SetCutoff(cutoffHz, sampleRate)

	return f
}

// SetCutoff retunes the filter. The cutoff is clamped below Nyquist.
func (f *AllPass) SetCutoff(cutoffHz, sampleRate float64) {
	if sampleRate <= 0 {
		return
	}

	ratio := math.Min(math.Max(cutoffHz/sampleRate, 1e-6), 0.49)
	t := math.Tan(math.Pi * ratio)
	f.a = (t - 1) / (t + 1)
}

// Coefficient returns the current all-pass coefficient.
func (f *AllPass) Coefficient() float64 {
	return f.a
}

// ProcessSample filters one sample of channel ch.
func (f *AllPass) ProcessSample(ch int, x float64) float64 {
	st := &f.state[ch]
	y := f.a*x + st[0] - f.a*st[1]
	st[0] = x
	st[1] = y

	return y
}

// Reset clears all channel states.
func (f *AllPass) Reset() {
	clear(f.state)
}
