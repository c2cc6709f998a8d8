package tube

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
)

const (
	defaultTriodeGain       = 1.0
	defaultTriodeEnvelopeHz = 20.0
	maxTriodeGain           = 100.0

	twoOverPi = 2 / math.Pi
)

// TriodeOption configures a Triode.
type TriodeOption func(*Triode) error

// WithEnvelopeHz sets the cutoff of the high-pass that drives the blend.
func WithEnvelopeHz(hz float64) TriodeOption {
	return func(t *Triode) error {
		if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
			return fmt.Errorf("triode envelope cutoff must be > 0: %f", hz)
		}

		t.envelopeHz = hz

		return nil
	}
}

// WithTriodeGains sets the initial positive and negative branch gains.
func WithTriodeGains(gp, gn float64) TriodeOption {
	return func(t *Triode) error {
		t.SetGains(gp, gn)
		t.prevGp, t.prevGn = t.gp, t.gn

		return nil
	}
}

type triodeState struct {
	lastOut float64
	hp      float64
}

// Triode is a multi-channel triode gain stage.
type Triode struct {
	envelopeHz float64
	hpCoeff    float64

	gp, gn         float64
	prevGp, prevGn float64

	state []triodeState
}

// NewTriode returns a triode stage. Call Prepare before processing.
func NewTriode(opts ...TriodeOption) (*Triode, error) {
	t := &Triode{
		envelopeHz: defaultTriodeEnvelopeHz,
		gp:         defaultTriodeGain,
		gn:         defaultTriodeGain,
		prevGp:     defaultTriodeGain,
		prevGn:     defaultTriodeGain,
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Prepare sizes per-channel state and derives the envelope coefficient.
func (t *Triode) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	t.hpCoeff = math.Exp(-2 * math.Pi * t.envelopeHz / spec.SampleRate)
	t.state = make([]triodeState, spec.NumChannels)

	return nil
}

// SetGains stores new branch gains. They are reached by the end of the next
// processed block. Gains are clamped to [0, 100].
func (t *Triode) SetGains(gp, gn float64) {
	t.gp = clampGain(gp)
	t.gn = clampGain(gn)
}

// Gains returns the target branch gains.
func (t *Triode) Gains() (gp, gn float64) {
	return t.gp, t.gn
}

func clampGain(g float64) float64 {
	if math.IsNaN(g) {
		return 0
	}

	return core.Clamp(g, 0, maxTriodeGain)
}

// Process runs the stage over every prepared channel of buf in place.
func (t *Triode) Process(buf *buffer.Audio) {
	n := buf.NumSamples()
	channels := min(buf.NumChannels(), len(t.state))

	if n == 0 || channels == 0 {
		return
	}

	dGp := (t.gp - t.prevGp) / float64(n)
	dGn := (t.gn - t.prevGn) / float64(n)

	for ch := range channels {
		st := &t.state[ch]
		data := buf.Channel(ch)

		gp, gn := t.prevGp, t.prevGn
		for i, x := range data {
			gp += dGp
			gn += dGn
			data[i] = t.tick(st, x, gp, gn)
		}
	}

	t.prevGp, t.prevGn = t.gp, t.gn
}

// ProcessSample runs one sample of channel ch at the target gains.
func (t *Triode) ProcessSample(ch int, x float64) float64 {
	return t.tick(&t.state[ch], x, t.gp, t.gn)
}

func (t *Triode) tick(st *triodeState, x, gp, gn float64) float64 {
	ym := 0.5 * (1 + mathTanh(st.hp))

	var m1, m2 float64
	if x >= 0 {
		m1 = mathTanh(gp * x)
		m2 = twoOverPi * math.Atan(gp*x)
	} else {
		m1 = twoOverPi * math.Atan(gn*x)
		m2 = mathTanh(gn * x)
	}

	y := (1-ym)*m1 + ym*m2

	st.hp = core.FlushDenormals(t.hpCoeff * (st.hp + y - st.lastOut))
	st.lastOut = y

	return y
}

// Reset clears the envelope state and snaps gain ramps to their targets.
func (t *Triode) Reset() {
	clear(t.state)
	t.prevGp, t.prevGn = t.gp, t.gn
}
