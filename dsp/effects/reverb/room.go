package reverb

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/delay"
	"github.com/cwbudde/algo-amp/dsp/interp"
	"github.com/cwbudde/algo-amp/dsp/param"
	"github.com/cwbudde/algo-amp/dsp/resample"
)

const (
	diffuserCount = 4

	defaultMaxRoomSizeMs = 250.0
	defaultMaxPreDelayMs = 500.0
	preDelayRampMs       = 50.0

	minRoomSizeMs = 5.0
	minRT60       = 0.05
	maxRT60       = 20.0
	maxModRate    = 10.0

	// sizeFloorPerSecond is the smallest room size in ms per second of RT60.
	sizeFloorPerSecond = 10.0
)

var diffuserSeeds = [diffuserCount]uint64{0x2545f4914f6cdd1d, 0x9e3779b97f4a7c15, 0xbf58476d1ce4e5b9, 0x94d049bb133111eb}

// Params is the value bundle a Room is configured from.
type Params struct {
	RoomSizeMs       float64
	RT60             float64
	EarlyReflections float64
	Dampening        float64
	ModulationRate   float64
	PreDelaySamples  float64
}

// DefaultParams returns the medium room voicing.
func DefaultParams() Params {
	return ParamsFor(TypeRoom, 0.5, 0.5, 0)
}

// sanitize clamps every field into its working range and enforces
// RoomSizeMs >= RT60*10.
func (p Params) sanitize(maxSizeMs float64) Params {
	clampNaN := func(v, lo, hi, def float64) float64 {
		if math.IsNaN(v) {
			return def
		}

		return core.Clamp(v, lo, hi)
	}

	p.RT60 = clampNaN(p.RT60, minRT60, min(maxRT60, maxSizeMs/sizeFloorPerSecond), minRT60)
	p.RoomSizeMs = clampNaN(p.RoomSizeMs, minRoomSizeMs, maxSizeMs, minRoomSizeMs)
	p.RoomSizeMs = max(p.RoomSizeMs, p.RT60*sizeFloorPerSecond)
	p.EarlyReflections = clampNaN(p.EarlyReflections, 0, 1, 0)
	p.Dampening = clampNaN(p.Dampening, 0.01, 1, 1)
	p.ModulationRate = clampNaN(p.ModulationRate, 0, maxModRate, 0)
	p.PreDelaySamples = clampNaN(p.PreDelaySamples, 0, math.MaxFloat64, 0)

	return p
}

// BalancedGains returns the dry and wet gains for mix in [0, 1]: fully dry
// at 0, both at unity at 0.5, fully wet at 1.
func BalancedGains(mix float64) (dry, wet float64) {
	if math.IsNaN(mix) {
		mix = 0
	}

	mix = core.Clamp(mix, 0, 1)

	return min(0.5, 1-mix) * 2, min(0.5, mix) * 2
}

// State is the lifecycle state of a Room.
type State int32

const (
	StateUninitialized State = iota
	StatePrepared
	StateProcessing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePrepared:
		return "prepared"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// RoomOption mutates construction-time parameters.
type RoomOption func(*roomConfig) error

type roomConfig struct {
	ratio         int
	maxRoomSizeMs float64
	maxPreDelayMs float64
}

// WithDownsampling runs the reverb core at 1/ratio of the host rate.
// Valid ratios are 1, 2 and 4.
func WithDownsampling(ratio int) RoomOption {
	return func(cfg *roomConfig) error {
		if !resample.ValidRatio(ratio) {
			return fmt.Errorf("%w: %d", resample.ErrInvalidRatio, ratio)
		}

		cfg.ratio = ratio

		return nil
	}
}

// WithMaxRoomSizeMs sets the largest room size buffers are sized for.
func WithMaxRoomSizeMs(ms float64) RoomOption {
	return func(cfg *roomConfig) error {
		if ms < minRoomSizeMs || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return fmt.Errorf("room max size must be >= %g ms: %f", minRoomSizeMs, ms)
		}

		cfg.maxRoomSizeMs = ms

		return nil
	}
}

// WithMaxPreDelayMs sets the largest pre-delay buffers are sized for.
func WithMaxPreDelayMs(ms float64) RoomOption {
	return func(cfg *roomConfig) error {
		if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return fmt.Errorf("room max pre-delay must be > 0: %f", ms)
		}

		cfg.maxPreDelayMs = ms

		return nil
	}
}

// Room is a self-contained stereo reverb bound to one Params bundle.
type Room struct {
	cfg    roomConfig
	params Params

	state   atomic.Int32
	ready   atomic.Bool
	pending bool

	sampleRate   float64
	internalRate float64
	maxBlock     int

	resampler *resample.Resampler
	preDelay  *delay.Line
	preRamp   *param.Smoothed
	diffusers [diffuserCount]*Diffuser
	feedback  *MixedFeedback

	earlyWeights [diffuserCount]float64
	basisCos     [Channels]float64
	basisSin     [Channels]float64

	io    [2][]float64
	block [Channels][]float64
	early [Channels][]float64
	dry   [][]float64
}

// NewRoom returns an unprepared room holding p. Buffers are allocated by
// Prepare.
func NewRoom(p Params, opts ...RoomOption) (*Room, error) {
	cfg := roomConfig{
		ratio:         1,
		maxRoomSizeMs: defaultMaxRoomSizeMs,
		maxPreDelayMs: defaultMaxPreDelayMs,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	r := &Room{cfg: cfg}
	r.params = p.sanitize(cfg.maxRoomSizeMs)
	r.pending = true

	scale := math.Sqrt(2.0 / Channels)
	for c := range Channels {
		theta := math.Pi * float64(c) / Channels
		r.basisCos[c] = scale * math.Cos(theta)
		r.basisSin[c] = scale * math.Sin(theta)
	}

	return r, nil
}

// Prepare allocates every buffer for the largest room and applies the
// stored parameters. On error the previous preparation is kept.
func (r *Room) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	ratio := r.cfg.ratio
	internalRate := spec.SampleRate / float64(ratio)
	maxBlock := int(spec.MaximumBlockSize)
	internalBlock := maxBlock/ratio + 1

	resampler, err := resample.New(ratio, 2)
	if err != nil {
		return err
	}

	maxPre := int(math.Ceil(r.cfg.maxPreDelayMs*0.001*internalRate)) + 1

	preDelay, err := delay.New(2, maxPre, delay.WithMode(interp.Linear))
	if err != nil {
		return err
	}

	var diffusers [diffuserCount]*Diffuser

	maxRange := int(math.Ceil(r.cfg.maxRoomSizeMs*0.001*internalRate/2)) + 1
	for k := range diffusers {
		d, err := NewDiffuser(diffuserSeeds[k], max(maxRange>>k, Channels))
		if err != nil {
			return err
		}

		diffusers[k] = d
	}

	feedback, err := NewMixedFeedback(internalRate, 2*r.cfg.maxRoomSizeMs)
	if err != nil {
		return err
	}

	r.ready.Store(false)

	r.sampleRate = spec.SampleRate
	r.internalRate = internalRate
	r.maxBlock = maxBlock
	r.resampler = resampler
	r.preDelay = preDelay
	r.preRamp = param.NewSmoothed(param.RampLinear, 0)
	r.preRamp.Reset(internalRate, preDelayRampMs)
	r.diffusers = diffusers
	r.feedback = feedback

	for ch := range r.io {
		r.io[ch] = make([]float64, internalBlock)
	}

	for c := range Channels {
		r.block[c] = make([]float64, internalBlock)
		r.early[c] = make([]float64, internalBlock)
	}

	r.dry = make([][]float64, spec.NumChannels)
	for ch := range r.dry {
		r.dry[ch] = make([]float64, maxBlock)
	}

	r.configure()
	r.preRamp.SetCurrentAndTarget(r.preDelayTarget())
	r.pending = false

	r.state.Store(int32(StatePrepared))
	r.ready.Store(true)

	return nil
}

// SetReverbParams replaces the parameter bundle. With init set, or before
// Prepare, the bundle is stored and applied by the next Prepare. Otherwise
// delays and decay are recomputed immediately; the caller must not run
// Process on r concurrently.
func (r *Room) SetReverbParams(p Params, init bool) {
	p = p.sanitize(r.cfg.maxRoomSizeMs)

	if init || r.State() == StateUninitialized {
		r.params = p
		r.pending = true

		return
	}

	r.ready.Store(false)
	r.params = p
	r.configure()
	r.preRamp.SetTarget(r.preDelayTarget())
	r.ready.Store(true)
}

// SetPreDelay changes only the pre-delay, ramping to it over 50 ms.
func (r *Room) SetPreDelay(samples float64) {
	if math.IsNaN(samples) {
		return
	}

	r.params.PreDelaySamples = max(samples, 0)
	if r.State() != StateUninitialized {
		r.preRamp.SetTarget(r.preDelayTarget())
	}
}

// Params returns the sanitized parameter bundle.
func (r *Room) Params() Params { return r.params }

// State returns the lifecycle state.
func (r *Room) State() State { return State(r.state.Load()) }

// Ready reports whether the room is prepared and not being reconfigured.
func (r *Room) Ready() bool {
	return r.State() != StateUninitialized && r.ready.Load()
}

// Ratio returns the internal downsampling ratio.
func (r *Room) Ratio() int { return r.cfg.ratio }

// DiffuserDelays returns the tap delays of diffuser k in internal samples.
func (r *Room) DiffuserDelays(k int) [Channels]int {
	if r.diffusers[k] == nil {
		return [Channels]int{}
	}

	return r.diffusers[k].Delays()
}

// FeedbackGain returns the per-pass decay gain of the tail network.
func (r *Room) FeedbackGain() float64 {
	if r.feedback == nil {
		return 0
	}

	return r.feedback.DecayGain()
}

func (r *Room) preDelayTarget() float64 {
	return r.params.PreDelaySamples / float64(r.cfg.ratio)
}

func (r *Room) configure() {
	p := r.params
	base := p.RoomSizeMs * 0.001 * r.internalRate

	weight := p.EarlyReflections
	for k, d := range r.diffusers {
		base *= 0.5
		d.Configure(base)

		r.earlyWeights[k] = weight
		weight *= 0.5
	}

	r.feedback.Configure(p.RoomSizeMs, p.RT60, p.Dampening, p.ModulationRate)
}

// Process mixes the reverb into buf with balanced dry/wet gains. An
// unprepared room leaves buf untouched. At most the prepared maximum block
// size is processed; later samples are left as they are.
func (r *Room) Process(buf *buffer.Audio, mix float64) {
	if r.State() == StateUninitialized {
		return
	}

	n := min(buf.NumSamples(), r.maxBlock)
	channels := min(buf.NumChannels(), len(r.dry))

	for ch := range channels {
		copy(r.dry[ch][:n], buf.Channel(ch)[:n])
	}

	r.ProcessWet(buf)

	dryGain, wetGain := BalancedGains(mix)
	for ch := range channels {
		data := buf.Channel(ch)[:n]
		dry := r.dry[ch][:n]

		for i := range data {
			data[i] = dry[i]*dryGain + data[i]*wetGain
		}
	}
}

// ProcessWet replaces buf with the reverb's wet signal. An unprepared room
// writes silence. Channels beyond the first two are cleared; a mono buffer
// is treated as identical left and right inputs. Like Process it handles at
// most the prepared maximum block size.
func (r *Room) ProcessWet(buf *buffer.Audio) {
	if r.State() == StateUninitialized {
		buf.Clear()
		return
	}

	r.state.Store(int32(StateProcessing))

	n := min(buf.NumSamples(), r.maxBlock)
	inputs := min(buf.NumChannels(), 2)

	if n == 0 || inputs == 0 {
		return
	}

	m := r.resampler.DownLen(0, n)
	for ch := range inputs {
		r.resampler.Down(ch, buf.Channel(ch)[:n], r.io[ch][:m])
	}

	r.applyPreDelay(inputs, m)
	r.upmix(inputs, m)

	for k, d := range r.diffusers {
		d.Process(&r.block, m)

		w := r.earlyWeights[k]
		for c := range Channels {
			early := r.early[c][:m]
			for i, v := range r.block[c][:m] {
				early[i] += w * v
			}
		}
	}

	r.feedback.Process(&r.block, m)

	for c := range Channels {
		early := r.early[c][:m]
		for i := range early {
			r.block[c][i] += early[i]
		}
	}

	r.downmix(inputs, m)

	for ch := range inputs {
		r.resampler.Up(ch, r.io[ch][:m], buf.Channel(ch)[:n])
	}

	for ch := inputs; ch < buf.NumChannels(); ch++ {
		clear(buf.Channel(ch))
	}
}

func (r *Room) applyPreDelay(inputs, m int) {
	ramping := r.preRamp.IsSmoothing()
	target := max(1, int(math.Round(r.preRamp.Target())))

	for i := range m {
		d := 0.0
		if ramping {
			d = r.preRamp.Next()
		}

		for ch := range inputs {
			x := r.io[ch][i]

			var y float64
			if ramping {
				y = r.preDelay.PopAt(ch, d)
			} else {
				y = r.preDelay.Read(ch, target)
			}

			r.preDelay.Push(ch, x)
			r.io[ch][i] = y
		}
	}
}

func (r *Room) upmix(inputs, m int) {
	left, right := r.io[0][:m], r.io[inputs-1][:m]

	for c := range Channels {
		cs, sn := r.basisCos[c], r.basisSin[c]
		dst := r.block[c][:m]

		for i := range dst {
			dst[i] = cs*left[i] + sn*right[i]
		}

		clear(r.early[c][:m])
	}
}

func (r *Room) downmix(inputs, m int) {
	left, right := r.io[0][:m], r.io[1][:m]

	for i := range m {
		var l, rr float64
		for c := range Channels {
			v := r.block[c][i]
			l += r.basisCos[c] * v
			rr += r.basisSin[c] * v
		}

		left[i] = l
		right[i] = rr
	}

	if inputs == 1 {
		for i := range left {
			left[i] = 0.5 * (left[i] + right[i])
		}
	}
}

// Reset clears all delay, filter and resampler state. It must not run
// concurrently with Process.
func (r *Room) Reset() {
	if r.State() == StateUninitialized {
		return
	}

	r.resampler.Reset()
	r.preDelay.Reset()

	for _, d := range r.diffusers {
		d.Reset()
	}

	r.feedback.Reset()
	r.preRamp.SetCurrentAndTarget(r.preDelayTarget())
}
