package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/delay"
	"github.com/cwbudde/algo-amp/dsp/filter/svf"
	"github.com/cwbudde/algo-amp/dsp/interp"
	"github.com/cwbudde/algo-amp/dsp/mix"
	"github.com/cwbudde/algo-amp/dsp/osc"
)

const (
	// modDepth is the largest read-position swing as a fraction of the
	// nominal delay.
	modDepth = 0.2

	tailHighpassHz = 150.0
	maxDampRatio   = 0.49
)

// DecayGain returns the per-pass feedback gain that makes a loop of
// delayMsBase decay by 60 dB in rt60 seconds.
func DecayGain(delayMsBase, rt60 float64) float64 {
	if rt60 <= 0 || delayMsBase <= 0 {
		return 0
	}

	dBPerCycle := -60 / (rt60 / (1.5 * delayMsBase / 1000))

	return math.Pow(10, dBPerCycle/20)
}

// MixedFeedback is the modulated 8-line feedback network that forms the
// late tail.
type MixedFeedback struct {
	sampleRate float64

	lines    *delay.Line
	lfos     [Channels]*osc.LFO
	lowpass  *svf.Filter
	highpass *svf.Filter

	nominal   [Channels]float64
	decayGain float64
}

// NewMixedFeedback returns a network at sampleRate whose nominal delays may
// reach maxDelayMs.
func NewMixedFeedback(sampleRate, maxDelayMs float64) (*MixedFeedback, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("feedback sample rate must be > 0: %f", sampleRate)
	}

	if maxDelayMs <= 0 || math.IsNaN(maxDelayMs) {
		return nil, fmt.Errorf("feedback delay must be > 0: %f", maxDelayMs)
	}

	maxDelay := int(math.Ceil(maxDelayMs*0.001*sampleRate*(1+modDepth))) + 4

	lines, err := delay.New(Channels, maxDelay, delay.WithMode(interp.Linear))
	if err != nil {
		return nil, err
	}

	lowpass, err := svf.New(svf.Lowpass, sampleRate, maxDampRatio*sampleRate, 0.5, Channels)
	if err != nil {
		return nil, err
	}

	highpass, err := svf.New(svf.Highpass, sampleRate, tailHighpassHz, 0.5, Channels)
	if err != nil {
		return nil, err
	}

	f := &MixedFeedback{
		sampleRate: sampleRate,
		lines:      lines,
		lowpass:    lowpass,
		highpass:   highpass,
	}

	for c := range f.lfos {
		// Spread start phases so the taps never move together.
		lfo, err := osc.NewLFO(sampleRate, 0, 2*math.Pi*float64(c)/Channels)
		if err != nil {
			return nil, err
		}

		f.lfos[c] = lfo
	}

	return f, nil
}

// Configure retunes delays, modulation, damping and decay. It does not
// allocate.
func (f *MixedFeedback) Configure(delayMsBase, rt60, dampening, modRate float64) {
	for c := range Channels {
		stagger := math.Exp2(float64(c) / Channels)

		f.nominal[c] = delayMsBase * stagger * 0.001 * f.sampleRate
		f.lfos[c].SetFrequency(modRate * stagger)
	}

	cutoff := min(dampening*f.sampleRate*0.5, maxDampRatio*f.sampleRate)
	f.lowpass.SetCutoff(max(cutoff, 20))
	f.decayGain = DecayGain(delayMsBase, rt60)
}

// DecayGain returns the feedback gain in use.
func (f *MixedFeedback) DecayGain() float64 { return f.decayGain }

// Nominal returns the unmodulated delay of every line in samples.
func (f *MixedFeedback) Nominal() [Channels]float64 { return f.nominal }

// Process runs block through the network in place. The output is the
// filtered taps before mixing.
func (f *MixedFeedback) Process(block *[Channels][]float64, n int) {
	var taps, mixed [Channels]float64

	for i := range n {
		for c := range Channels {
			d := f.nominal[c] * (1 + modDepth*f.lfos[c].Next())

			y := f.lowpass.ProcessSample(c, f.lines.PopAt(c, d))
			taps[c] = f.highpass.ProcessSample(c, y)
		}

		mixed = taps
		mix.Householder(mixed[:])

		for c := range Channels {
			f.lines.Push(c, block[c][i]+mixed[c]*f.decayGain)
			block[c][i] = taps[c]
		}
	}
}

// Reset clears delays and filters. LFO phases keep running.
func (f *MixedFeedback) Reset() {
	f.lines.Reset()
	f.lowpass.Reset()
	f.highpass.Reset()
}
