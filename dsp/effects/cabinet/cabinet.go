package cabinet

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/delay"
	"github.com/cwbudde/algo-amp/dsp/filter/biquad"
	"github.com/cwbudde/algo-amp/dsp/filter/design"
	"github.com/cwbudde/algo-amp/dsp/filter/onepole"
	"github.com/cwbudde/algo-amp/dsp/interp"
	"github.com/cwbudde/algo-amp/dsp/param"
)

const (
	order = 4

	defaultFeedback    = 0.35
	defaultTapLowpass  = 6000.0
	defaultMicPosition = 0.5
	micSmoothingMs     = 50.0

	micMinHz    = 300.0
	micMaxHz    = 9000.0
	maxTapMs    = 3.0
	maxFeedback = 0.9
)

// Type is a cabinet size.
type Type int32

const (
	Small Type = iota
	Medium
	Large
)

// TypeNames lists the cabinet sizes in index order.
var TypeNames = []string{"small", "medium", "large"}

// String returns the type name.
func (t Type) String() string {
	if t.valid() {
		return TypeNames[t]
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

func (t Type) valid() bool { return t >= Small && t <= Large }

// voicing is the fixed calibration of one cabinet size.
type voicing struct {
	tapsMs     [order]float64
	highpassHz float64
	lp1Hz      float64
	lp1Q       float64
	lp2Hz      float64
	lp2Q       float64
	shelfHz    float64
	shelfDB    float64
}

var voicings = [...]voicing{
	Small: {
		tapsMs:     [order]float64{0.31, 0.47, 0.73, 1.09},
		highpassHz: 100,
		lp1Hz:      4500,
		lp1Q:       1.2,
		lp2Hz:      6500,
		lp2Q:       0.9,
	},
	Medium: {
		tapsMs:     [order]float64{0.53, 0.79, 1.13, 1.61},
		highpassHz: 80,
		lp1Hz:      4000,
		lp1Q:       1.4,
		lp2Hz:      5500,
		lp2Q:       0.8,
		shelfHz:    120,
		shelfDB:    2,
	},
	Large: {
		tapsMs:     [order]float64{0.83, 1.19, 1.71, 2.39},
		highpassHz: 60,
		lp1Hz:      3500,
		lp1Q:       1.6,
		lp2Hz:      5000,
		lp2Q:       0.7,
		shelfHz:    100,
		shelfDB:    4,
	},
}

// Option mutates construction-time parameters.
type Option func(*Cabinet) error

// WithFeedback sets the cross-feedback amount of the cone network.
func WithFeedback(fb float64) Option {
	return func(c *Cabinet) error {
		if fb < 0 || fb > maxFeedback || math.IsNaN(fb) {
			return fmt.Errorf("cabinet feedback must be in [0, %g]: %f", maxFeedback, fb)
		}

		c.feedback = fb

		return nil
	}
}

// WithType sets the initial cabinet type.
func WithType(t Type) Option {
	return func(c *Cabinet) error {
		if !t.valid() {
			return fmt.Errorf("cabinet type is invalid: %d", t)
		}

		c.typ.Store(int32(t))

		return nil
	}
}

// Cabinet is a multi-channel speaker cabinet.
type Cabinet struct {
	typ     atomic.Int32
	applied Type

	feedback   float64
	sampleRate float64
	channels   int

	taps    *delay.Line
	tapLP   *onepole.LowPass
	tapLen  [order]float64
	allpass *onepole.AllPass
	mic     *param.Smoothed
	micHz   []float64

	highpass *biquad.Filter
	lowpass1 *biquad.Filter
	lowpass2 *biquad.Filter
	shelf    *biquad.Filter
	hasShelf bool
}

// New returns a cabinet of type Small. Call Prepare before processing; an
// unprepared cabinet passes audio through.
func New(opts ...Option) (*Cabinet, error) {
	c := &Cabinet{
		feedback: defaultFeedback,
		mic:      param.NewSmoothed(param.RampLinear, defaultMicPosition),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Prepare allocates the tap network for the largest cabinet and applies the
// current type.
func (c *Cabinet) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	channels := int(spec.NumChannels)
	maxTap := int(math.Ceil(maxTapMs*0.001*spec.SampleRate)) + 1

	taps, err := delay.New(channels*order, maxTap, delay.WithMode(interp.Linear))
	if err != nil {
		return err
	}

	c.sampleRate = spec.SampleRate
	c.channels = channels
	c.taps = taps
	c.tapLP = onepole.NewLowPass(defaultTapLowpass, spec.SampleRate, channels*order)
	c.allpass = onepole.NewAllPass(micCutoff(c.mic.Target()), spec.SampleRate, channels)
	c.micHz = make([]float64, spec.MaximumBlockSize)

	c.highpass = biquad.NewFilter(channels, biquad.Identity())
	c.lowpass1 = biquad.NewFilter(channels, biquad.Identity())
	c.lowpass2 = biquad.NewFilter(channels, biquad.Identity())
	c.shelf = biquad.NewFilter(channels, biquad.Identity())

	c.mic.Reset(spec.SampleRate, micSmoothingMs)
	c.applyType(Type(c.typ.Load()))

	return nil
}

// SetType requests a cabinet type. It may be called from any goroutine and
// takes effect at the next block boundary. Invalid types are ignored.
func (c *Cabinet) SetType(t Type) {
	if t.valid() {
		c.typ.Store(int32(t))
	}
}

// Type returns the requested cabinet type.
func (c *Cabinet) Type() Type {
	return Type(c.typ.Load())
}

// SetMicPosition sets the microphone position in [0, 1], from cone centre
// to edge. The all-pass cutoff follows with a short ramp.
func (c *Cabinet) SetMicPosition(pos float64) {
	if math.IsNaN(pos) {
		return
	}

	c.mic.SetTarget(core.Clamp(pos, 0, 1))
}

// MicPosition returns the target microphone position.
func (c *Cabinet) MicPosition() float64 {
	return c.mic.Target()
}

func micCutoff(pos float64) float64 {
	return micMinHz * math.Pow(micMaxHz/micMinHz, pos)
}

func (c *Cabinet) applyType(t Type) {
	v := voicings[t]
	sr := c.sampleRate

	for k, ms := range v.tapsMs {
		c.tapLen[k] = ms * 0.001 * sr
	}

	c.highpass.SetCoefficients(design.Highpass(v.highpassHz, design.ButterworthQ, sr))
	c.lowpass1.SetCoefficients(design.Lowpass(v.lp1Hz, v.lp1Q, sr))
	c.lowpass2.SetCoefficients(design.Lowpass(v.lp2Hz, v.lp2Q, sr))

	c.hasShelf = v.shelfDB != 0
	if c.hasShelf {
		c.shelf.SetCoefficients(design.LowShelf(v.shelfHz, v.shelfDB, design.ButterworthQ, sr))
	}

	c.applied = t
}

// Process runs the cabinet over buf in place.
func (c *Cabinet) Process(buf *buffer.Audio) {
	if c.taps == nil {
		return
	}

	if t := Type(c.typ.Load()); t != c.applied {
		c.applyType(t)
	}

	n := min(buf.NumSamples(), len(c.micHz))
	channels := min(buf.NumChannels(), c.channels)

	if n == 0 || channels == 0 {
		return
	}

	smoothing := c.mic.IsSmoothing()
	if smoothing {
		for i := range n {
			c.micHz[i] = micCutoff(c.mic.Next())
		}
	}

	for ch := range channels {
		data := buf.Channel(ch)[:n]

		for i, x := range data {
			if smoothing {
				c.allpass.SetCutoff(c.micHz[i], c.sampleRate)
			}

			data[i] = c.allpass.ProcessSample(ch, c.cone(ch, x))
		}
	}

	if smoothing {
		// The last channel left the all-pass at the ramp end.
		c.allpass.SetCutoff(c.micHz[n-1], c.sampleRate)
	}

	c.highpass.Process(buf)
	c.lowpass1.Process(buf)
	c.lowpass2.Process(buf)

	if c.hasShelf {
		c.shelf.Process(buf)
	}
}

// cone runs one sample of channel ch through the tap network.
func (c *Cabinet) cone(ch int, x float64) float64 {
	var y [order]float64

	base := ch * order
	sum := 0.0

	for k := range order {
		y[k] = c.tapLP.ProcessSample(base+k, c.taps.PopAt(base+k, c.tapLen[k]))
		sum += y[k]
	}

	for k := range order {
		sign := 1.0
		if k%2 == 1 {
			sign = -1
		}

		c.taps.Push(base+k, x+c.feedback*sign*y[(k+1)%order])
	}

	return 0.5*x + sum/(2*order)
}

// Reset clears all filter and delay state and snaps the mic ramp.
func (c *Cabinet) Reset() {
	if c.taps == nil {
		return
	}

	c.taps.Reset()
	c.tapLP.Reset()
	c.allpass.Reset()
	c.highpass.Reset()
	c.lowpass1.Reset()
	c.lowpass2.Reset()
	c.shelf.Reset()

	c.mic.SetCurrentAndTarget(c.mic.Target())
	c.allpass.SetCutoff(micCutoff(c.mic.Current()), c.sampleRate)
}

// Response returns the magnitude in dB of the fixed filter bank of the
// applied type at freqHz.
func (c *Cabinet) Response(freqHz float64) float64 {
	if c.highpass == nil {
		return 0
	}

	sections := []biquad.Coefficients{
		c.highpass.Coefficients(),
		c.lowpass1.Coefficients(),
		c.lowpass2.Coefficients(),
	}

	if c.hasShelf {
		sections = append(sections, c.shelf.Coefficients())
	}

	return biquad.CascadeMagnitudeDB(freqHz, c.sampleRate, sections...)
}
