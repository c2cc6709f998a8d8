package tube

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
)

const (
	defaultPentodeDrive      = 1.0
	defaultPentodeBiasShift  = 0.3
	defaultPentodeEnvelopeMs = 30.0
)

// Curve is a static saturation transfer function. Shape(0) must be 0.
type Curve interface {
	Shape(x float64) float64
}

// Classic is a rational soft clipper with independent knees for positive
// (Lp) and negative (Ln) excursions: x*L/(L+|x|).
type Classic struct {
	Lp, Ln float64
}

// Shape implements Curve.
func (c Classic) Shape(x float64) float64 {
	if x >= 0 {
		return x * c.Lp / (c.Lp + x)
	}

	return x * c.Ln / (c.Ln - x)
}

// Nu clips with tanh and re-expands the result through sinh, which keeps
// small signals linear but sharpens the knee. Kp and Kn set the expansion
// per polarity.
type Nu struct {
	Kp, Kn float64
}

// Shape implements Curve.
func (n Nu) Shape(x float64) float64 {
	k := n.Kp
	if x < 0 {
		k = n.Kn
	}

	if k <= core.Epsilon {
		return mathTanh(x)
	}

	return mathSinh(k*mathTanh(x)) / k
}

// PentodeOption configures a Pentode.
type PentodeOption func(*pentodeConfig) error

type pentodeConfig struct {
	drive      float64
	biasShift  float64
	envelopeMs float64
}

// WithDrive sets the input gain in front of the curve.
func WithDrive(drive float64) PentodeOption {
	return func(cfg *pentodeConfig) error {
		if drive < 0 || math.IsNaN(drive) || math.IsInf(drive, 0) {
			return fmt.Errorf("pentode drive must be >= 0: %f", drive)
		}

		cfg.drive = drive

		return nil
	}
}

// WithBiasShift sets how much of the input envelope is subtracted.
func WithBiasShift(amount float64) PentodeOption {
	return func(cfg *pentodeConfig) error {
		if amount < 0 || amount > 1 || math.IsNaN(amount) {
			return fmt.Errorf("pentode bias shift must be in [0, 1]: %f", amount)
		}

		cfg.biasShift = amount

		return nil
	}
}

// WithEnvelopeMs sets the envelope detector time constant.
func WithEnvelopeMs(ms float64) PentodeOption {
	return func(cfg *pentodeConfig) error {
		if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return fmt.Errorf("pentode envelope time must be > 0: %f", ms)
		}

		cfg.envelopeMs = ms

		return nil
	}
}

// Pentode is a multi-channel power-tube stage with curve C.
type Pentode[C Curve] struct {
	curve C
	cfg   pentodeConfig

	envCoeff float64
	env      []float64
}

// NewPentode returns a pentode stage using curve. Call Prepare before
// processing.
func NewPentode[C Curve](curve C, opts ...PentodeOption) (*Pentode[C], error) {
	cfg := pentodeConfig{
		drive:      defaultPentodeDrive,
		biasShift:  defaultPentodeBiasShift,
		envelopeMs: defaultPentodeEnvelopeMs,
	}

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Pentode[C]{curve: curve, cfg: cfg}, nil
}

// Prepare sizes per-channel envelopes and derives the detector coefficient.
func (p *Pentode[C]) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	p.envCoeff = 1 - mathExp(-1000/(p.cfg.envelopeMs*spec.SampleRate))
	p.env = make([]float64, spec.NumChannels)

	return nil
}

// SetDrive updates the input gain. Negative values are clamped to 0.
func (p *Pentode[C]) SetDrive(drive float64) {
	if math.IsNaN(drive) || drive < 0 {
		drive = 0
	}

	p.cfg.drive = drive
}

// Drive returns the input gain.
func (p *Pentode[C]) Drive() float64 {
	return p.cfg.drive
}

// Curve returns the saturation curve.
func (p *Pentode[C]) Curve() C {
	return p.curve
}

// ProcessSample runs one sample of channel ch.
func (p *Pentode[C]) ProcessSample(ch int, x float64) float64 {
	env := p.env[ch] + p.envCoeff*(math.Abs(x)-p.env[ch])
	env = core.FlushDenormals(env)
	p.env[ch] = env

	v := p.cfg.drive * (x - p.cfg.biasShift*env)

	return p.curve.Shape(v)
}

// Process runs the stage over every prepared channel of buf in place.
func (p *Pentode[C]) Process(buf *buffer.Audio) {
	channels := min(buf.NumChannels(), len(p.env))
	for ch := range channels {
		data := buf.Channel(ch)
		for i, x := range data {
			data[i] = p.ProcessSample(ch, x)
		}
	}
}

// Reset clears the envelopes.
func (p *Pentode[C]) Reset() {
	clear(p.env)
}
