package enhancer

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/filter/biquad"
	"github.com/cwbudde/algo-amp/dsp/filter/design"
	"github.com/cwbudde/algo-amp/dsp/filter/svf"
)

const (
	defaultHFFrequency = 3000.0
	defaultLFFrequency = 120.0
	defaultDrive       = 4.0

	minHFFrequency = 1000.0
	maxHFFrequency = 12000.0
	minLFFrequency = 40.0
	maxLFFrequency = 400.0

	harmonicBandQ = 0.7
)

// Option mutates construction-time parameters.
type Option func(*config) error

type config struct {
	frequency float64
	drive     float64
}

// WithFrequency sets the split frequency in Hz.
func WithFrequency(hz float64) Option {
	return func(cfg *config) error {
		if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
			return fmt.Errorf("enhancer frequency must be > 0: %f", hz)
		}

		cfg.frequency = hz

		return nil
	}
}

// WithDrive sets the gain into the harmonic generator.
func WithDrive(drive float64) Option {
	return func(cfg *config) error {
		if drive < 1 || drive > 20 || math.IsNaN(drive) {
			return fmt.Errorf("enhancer drive must be in [1, 20]: %f", drive)
		}

		cfg.drive = drive

		return nil
	}
}

func buildConfig(def, lo, hi float64, name string, opts []Option) (config, error) {
	cfg := config{frequency: def, drive: defaultDrive}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}

	if cfg.frequency < lo || cfg.frequency > hi {
		return config{}, fmt.Errorf("%s enhancer frequency must be in [%g, %g]: %f", name, lo, hi, cfg.frequency)
	}

	return cfg, nil
}

func clampAmount(amount float64) (float64, bool) {
	if math.IsNaN(amount) {
		return 0, false
	}

	return core.Clamp(amount, 0, 1), true
}

// HF is a high-frequency exciter.
type HF struct {
	cfg    config
	amount float64
	band   *svf.Filter
}

// NewHF returns an exciter splitting at 3 kHz unless configured otherwise.
func NewHF(opts ...Option) (*HF, error) {
	cfg, err := buildConfig(defaultHFFrequency, minHFFrequency, maxHFFrequency, "hf", opts)
	if err != nil {
		return nil, err
	}

	return &HF{cfg: cfg}, nil
}

// Prepare allocates the band filter.
func (e *HF) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	band, err := svf.New(svf.Highpass, spec.SampleRate, e.cfg.frequency, design.ButterworthQ, int(spec.NumChannels))
	if err != nil {
		return err
	}

	e.band = band

	return nil
}

// SetAmount sets the added harmonic level in [0, 1].
func (e *HF) SetAmount(amount float64) {
	if v, ok := clampAmount(amount); ok {
		e.amount = v
	}
}

// Amount returns the harmonic level.
func (e *HF) Amount() float64 { return e.amount }

// Process adds the saturated high band to buf in place.
func (e *HF) Process(buf *buffer.Audio) {
	if e.band == nil {
		return
	}

	channels := min(buf.NumChannels(), e.band.NumChannels())
	drive := e.cfg.drive

	for ch := range channels {
		data := buf.Channel(ch)
		for i, x := range data {
			h := math.Tanh(drive*e.band.ProcessSample(ch, x)) / drive
			data[i] = x + e.amount*h
		}
	}
}

// Reset clears the band filter.
func (e *HF) Reset() {
	if e.band != nil {
		e.band.Reset()
	}
}

// LF is a low-frequency harmonic enhancer.
type LF struct {
	cfg    config
	amount float64

	lowpass  *biquad.Filter
	bandpass *biquad.Filter
}

// NewLF returns an enhancer splitting at 120 Hz unless configured otherwise.
func NewLF(opts ...Option) (*LF, error) {
	cfg, err := buildConfig(defaultLFFrequency, minLFFrequency, maxLFFrequency, "lf", opts)
	if err != nil {
		return nil, err
	}

	return &LF{cfg: cfg}, nil
}

// Prepare designs the split and harmonic band filters.
func (e *LF) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	channels := int(spec.NumChannels)
	f := e.cfg.frequency

	e.lowpass = biquad.NewFilter(channels, design.Lowpass(f, design.ButterworthQ, spec.SampleRate))
	e.bandpass = biquad.NewFilter(channels, design.Bandpass(2*f, harmonicBandQ, spec.SampleRate))

	return nil
}

// SetAmount sets the added harmonic level in [0, 1].
func (e *LF) SetAmount(amount float64) {
	if v, ok := clampAmount(amount); ok {
		e.amount = v
	}
}

// Amount returns the harmonic level.
func (e *LF) Amount() float64 { return e.amount }

// Process adds the synthesized low harmonics to buf in place.
func (e *LF) Process(buf *buffer.Audio) {
	if e.lowpass == nil {
		return
	}

	channels := min(buf.NumChannels(), e.lowpass.NumChannels())
	drive := e.cfg.drive

	for ch := range channels {
		data := buf.Channel(ch)
		for i, x := range data {
			low := e.lowpass.ProcessSample(ch, x)

			// |low| contributes even harmonics, tanh the odd ones.
			h := math.Abs(low) + math.Tanh(drive*low)/drive
			data[i] = x + e.amount*e.bandpass.ProcessSample(ch, h)
		}
	}
}

// Reset clears both filters.
func (e *LF) Reset() {
	if e.lowpass != nil {
		e.lowpass.Reset()
		e.bandpass.Reset()
	}
}
