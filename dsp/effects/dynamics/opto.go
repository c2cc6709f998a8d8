package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/filter/svf"
)

const (
	// instrumentThresholdDB is the fixed threshold of the guitar and bass
	// profiles. The channel profile reaches it at amount 1.
	instrumentThresholdDB = -36.0

	// envScale converts log10 of the level ratio to the envelope unit.
	envScale = 8.69

	minOptoAttackMs    = 5.0
	maxOptoAttackMs    = 50.0
	optoReleaseMs      = 600.0
	minOptoReleaseMs   = 10.0
	defaultSidechainQ  = 0.5
	minOptoSidechainHz = 20.0
)

// Profile selects how the amount control maps onto the gain computer.
type Profile int

const (
	// ProfileGuitar uses a fixed -36 dB threshold; amount sets the depth.
	ProfileGuitar Profile = iota
	// ProfileBass is ProfileGuitar with a lower sidechain band.
	ProfileBass
	// ProfileChannel lowers the threshold from 0 dB to -36 dB as amount
	// rises.
	ProfileChannel
)

// String returns the profile name.
func (p Profile) String() string {
	switch p {
	case ProfileGuitar:
		return "guitar"
	case ProfileBass:
		return "bass"
	case ProfileChannel:
		return "channel"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

func (p Profile) sidechainHz() float64 {
	switch p {
	case ProfileBass:
		return 250
	case ProfileChannel:
		return 700
	default:
		return 1000
	}
}

// OptoOption mutates construction-time parameters.
type OptoOption func(*optoConfig) error

type optoConfig struct {
	linked      bool
	sidechainHz float64
	makeupDB    float64
}

// WithLinked derives one gain reduction from max(|L|, |R|) for all channels.
func WithLinked(linked bool) OptoOption {
	return func(cfg *optoConfig) error {
		cfg.linked = linked
		return nil
	}
}

// WithSidechainHz sets the centre of the sidechain band-pass.
func WithSidechainHz(hz float64) OptoOption {
	return func(cfg *optoConfig) error {
		if hz < minOptoSidechainHz || math.IsNaN(hz) || math.IsInf(hz, 0) {
			return fmt.Errorf("opto sidechain frequency must be >= %g: %f", minOptoSidechainHz, hz)
		}

		cfg.sidechainHz = hz

		return nil
	}
}

// WithMakeupGainDB sets a fixed output gain in dB.
func WithMakeupGainDB(db float64) OptoOption {
	return func(cfg *optoConfig) error {
		if db < -24 || db > 24 || math.IsNaN(db) {
			return fmt.Errorf("opto makeup gain must be in [-24, 24] dB: %f", db)
		}

		cfg.makeupDB = db

		return nil
	}
}

// optoDetector timing follows the level relative to the fixed instrument
// threshold, so the detected level does not depend on amount.
type optoDetector struct {
	xm    float64
	level float64
	env   float64
	gr    float64
}

// Opto is a program-dependent optical compressor. Attack speeds up with the
// detected level; release speeds up as gain reduction deepens.
type Opto struct {
	profile Profile
	cfg     optoConfig

	amount     float64
	threshold  float64
	reference  float64
	makeup     float64
	sampleRate float64

	sidechain *svf.Filter
	detectors []optoDetector
	gains     []float64

	minGain float64
}

// NewOpto returns a compressor for profile at amount 0. Call Prepare before
// processing; an unprepared compressor passes audio through.
func NewOpto(profile Profile, opts ...OptoOption) (*Opto, error) {
	if profile < ProfileGuitar || profile > ProfileChannel {
		return nil, fmt.Errorf("opto profile is invalid: %d", profile)
	}

	cfg := optoConfig{sidechainHz: profile.sidechainHz()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	o := &Opto{
		profile:   profile,
		cfg:       cfg,
		makeup:    core.DBToLinear(cfg.makeupDB),
		reference: core.DBToLinear(instrumentThresholdDB),
		minGain:   1,
	}
	o.SetAmount(0)

	return o, nil
}

// Prepare sizes detectors and the sidechain filter.
func (o *Opto) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	sidechain, err := svf.New(svf.Bandpass, spec.SampleRate, o.cfg.sidechainHz, defaultSidechainQ, int(spec.NumChannels))
	if err != nil {
		return err
	}

	o.sampleRate = spec.SampleRate
	o.sidechain = sidechain
	o.detectors = make([]optoDetector, spec.NumChannels)
	o.gains = make([]float64, spec.MaximumBlockSize)
	o.Reset()

	return nil
}

// SetAmount sets the compression amount in [0, 1].
func (o *Opto) SetAmount(amount float64) {
	if math.IsNaN(amount) {
		return
	}

	o.amount = core.Clamp(amount, 0, 1)

	thresholdDB := instrumentThresholdDB
	if o.profile == ProfileChannel {
		thresholdDB = o.amount * instrumentThresholdDB
	}

	o.threshold = core.DBToLinear(thresholdDB)
}

// Amount returns the compression amount.
func (o *Opto) Amount() float64 { return o.amount }

// Profile returns the profile.
func (o *Opto) Profile() Profile { return o.profile }

// Linked reports whether channels share one detector.
func (o *Opto) Linked() bool { return o.cfg.linked }

// SetLinked switches linked stereo detection. Detector state is kept.
func (o *Opto) SetLinked(linked bool) { o.cfg.linked = linked }

// GainReduction returns the smallest gain applied since the last call and
// clears it.
func (o *Opto) GainReduction() float64 {
	g := o.minGain
	o.minGain = 1

	return g
}

// detect advances d with the rectified sidechain input x.
func (o *Opto) detect(d *optoDetector, ch int, x float64) {
	s := math.Abs(o.sidechain.ProcessSample(ch, d.xm))
	d.xm = x

	var timeMs float64
	if s > d.level {
		timeMs = core.Clamp(maxOptoAttackMs/(1+d.env), minOptoAttackMs, maxOptoAttackMs)
	} else {
		timeMs = max(optoReleaseMs*d.gr, minOptoReleaseMs)
	}

	coeff := math.Exp(-1000 / (timeMs * o.sampleRate))
	d.level = core.FlushDenormals(s + coeff*(d.level-s))

	d.env = envelope(d.level, o.reference)
	d.gr = reduction(d.env)
}

// envelope returns the clamped log-domain overshoot of level.
func envelope(level, threshold float64) float64 {
	return max(0, envScale*core.SafeLog10(level/threshold))
}

// reduction maps the envelope to a linear gain, gr = 10^(-env/2).
func reduction(env float64) float64 {
	return math.Pow(10, -env/2)
}

// gain returns the output gain for detected level.
func (o *Opto) gain(level float64) float64 {
	if o.profile == ProfileChannel {
		return reduction(envelope(level, o.threshold)) * o.makeup
	}

	return math.Pow(reduction(envelope(level, o.reference)), o.amount) * o.makeup
}

// Process compresses buf in place.
func (o *Opto) Process(buf *buffer.Audio) {
	if o.sidechain == nil {
		return
	}

	n := min(buf.NumSamples(), len(o.gains))
	channels := min(buf.NumChannels(), len(o.detectors))

	if o.cfg.linked && channels > 1 {
		d := &o.detectors[0]
		for i := range n {
			x := 0.0
			for ch := range channels {
				x = max(x, math.Abs(buf.Channel(ch)[i]))
			}

			o.gains[i] = o.gain(d.level)
			o.detect(d, 0, x)
		}

		for ch := range channels {
			buf.MultiplyBy(ch, o.gains[:n])
		}

		o.trackMin(n)

		return
	}

	for ch := range channels {
		d := &o.detectors[ch]
		data := buf.Channel(ch)[:n]

		for i, x := range data {
			o.gains[i] = o.gain(d.level)
			o.detect(d, ch, math.Abs(x))
		}

		buf.MultiplyBy(ch, o.gains[:n])
		o.trackMin(n)
	}
}

func (o *Opto) trackMin(n int) {
	for _, g := range o.gains[:n] {
		o.minGain = min(o.minGain, g)
	}
}

// Reset clears detector state.
func (o *Opto) Reset() {
	for i := range o.detectors {
		o.detectors[i] = optoDetector{gr: 1}
	}

	if o.sidechain != nil {
		o.sidechain.Reset()
	}

	o.minGain = 1
}
