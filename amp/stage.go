package amp

import (
	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/effects/reverb"
	"github.com/cwbudde/algo-amp/dsp/filter/biquad"
	"github.com/cwbudde/algo-amp/dsp/filter/design"
	"github.com/cwbudde/algo-amp/dsp/filter/onepole"
)

// Stage is one block processor in a chain.
type Stage interface {
	Prepare(spec core.ProcessSpec) error
	Process(buf *buffer.Audio)
	Reset()
}

// preFilter band-limits the signal ahead of the gain stages: a one-pole
// high-pass against rumble and a Butterworth low-pass against fizz.
type preFilter struct {
	highHz float64
	lowHz  float64

	channels int
	highpass *onepole.HighPass
	lowpass  *biquad.Filter
}

func newPreFilter(highHz, lowHz float64) *preFilter {
	return &preFilter{highHz: highHz, lowHz: lowHz}
}

func (f *preFilter) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	n := int(spec.NumChannels)
	f.channels = n
	f.highpass = onepole.NewHighPass(f.highHz, spec.SampleRate, n)
	f.lowpass = biquad.NewFilter(n, design.Lowpass(min(f.lowHz, 0.45*spec.SampleRate), design.ButterworthQ, spec.SampleRate))

	return nil
}

func (f *preFilter) Process(buf *buffer.Audio) {
	if f.highpass == nil {
		return
	}

	for ch := range min(buf.NumChannels(), f.channels) {
		data := buf.Channel(ch)
		for i, x := range data {
			data[i] = f.highpass.ProcessSample(ch, x)
		}
	}

	f.lowpass.Process(buf)
}

func (f *preFilter) Reset() {
	if f.highpass == nil {
		return
	}

	f.highpass.Reset()
	f.lowpass.Reset()
}

const (
	eqLowHz    = 120.0
	eqMidHz    = 900.0
	eqHighHz   = 4000.0
	eqMidQ     = 0.7
	eqMaxGain  = 12.0
	eqNeutral  = 0.5
	eqUnsetVal = -1.0
)

// equalizer is the Channel chain's three-band EQ: low shelf, mid peak and
// high shelf. Controls in [0, 1] map to ±12 dB around 0.5.
type equalizer struct {
	sampleRate float64
	bands      [3]*biquad.Filter
	controls   [3]float64
}

func newEqualizer() *equalizer {
	return &equalizer{controls: [3]float64{eqUnsetVal, eqUnsetVal, eqUnsetVal}}
}

func (e *equalizer) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	e.sampleRate = spec.SampleRate
	for i := range e.bands {
		e.bands[i] = biquad.NewFilter(int(spec.NumChannels), biquad.Identity())
	}

	controls := e.controls
	e.controls = [3]float64{eqUnsetVal, eqUnsetVal, eqUnsetVal}

	for i, v := range controls {
		if v == eqUnsetVal {
			v = eqNeutral
		}

		e.set(i, v)
	}

	return nil
}

// set retunes band i when its control moved.
func (e *equalizer) set(i int, v float64) {
	v = core.Clamp(v, 0, 1)
	if v == e.controls[i] {
		return
	}

	e.controls[i] = v
	if e.bands[i] == nil {
		return
	}

	gain := (v - eqNeutral) * 2 * eqMaxGain

	var c biquad.Coefficients

	switch i {
	case 0:
		c = design.LowShelf(eqLowHz, gain, design.ButterworthQ, e.sampleRate)
	case 1:
		c = design.Peak(eqMidHz, gain, eqMidQ, e.sampleRate)
	default:
		c = design.HighShelf(eqHighHz, gain, design.ButterworthQ, e.sampleRate)
	}

	e.bands[i].SetCoefficients(c)
}

func (e *equalizer) Process(buf *buffer.Audio) {
	if e.bands[0] == nil {
		return
	}

	for _, band := range e.bands {
		band.Process(buf)
	}
}

func (e *equalizer) Reset() {
	for _, band := range e.bands {
		if band != nil {
			band.Reset()
		}
	}
}

// response returns the EQ magnitude in dB at freqHz.
func (e *equalizer) response(freqHz float64) float64 {
	if e.bands[0] == nil {
		return 0
	}

	return biquad.CascadeMagnitudeDB(freqHz, e.sampleRate,
		e.bands[0].Coefficients(), e.bands[1].Coefficients(), e.bands[2].Coefficients())
}

// reverbStage adapts the reverb manager's mix-taking Process to Stage.
type reverbStage struct {
	manager *reverb.Manager
	mix     float64
}

func (r *reverbStage) Prepare(spec core.ProcessSpec) error { return r.manager.Prepare(spec) }
func (r *reverbStage) Process(buf *buffer.Audio)           { r.manager.Process(buf, r.mix) }
func (r *reverbStage) Reset()                              { r.manager.Reset() }
