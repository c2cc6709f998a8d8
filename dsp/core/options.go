package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSpec is returned when a ProcessSpec cannot be used to prepare a processor.
var ErrInvalidSpec = errors.New("invalid process spec")

// ProcessSpec describes the stream a processor is prepared for. It stays fixed
// between two Prepare calls; stateful components derive buffer sizes and
// coefficients from it.
type ProcessSpec struct {
	SampleRate       float64
	MaximumBlockSize uint32
	NumChannels      uint32
}

// ProcessorOption mutates a ProcessSpec.
type ProcessorOption func(*ProcessSpec)

// DefaultProcessSpec returns sensible defaults for offline and streaming use.
func DefaultProcessSpec() ProcessSpec {
	return ProcessSpec{
		SampleRate:       48000,
		MaximumBlockSize: 512,
		NumChannels:      2,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(spec *ProcessSpec) {
		if sampleRate > 0 {
			spec.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the maximum processing block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(spec *ProcessSpec) {
		if blockSize > 0 {
			spec.MaximumBlockSize = uint32(blockSize)
		}
	}
}

// WithChannels sets the channel count.
func WithChannels(channels int) ProcessorOption {
	return func(spec *ProcessSpec) {
		if channels > 0 {
			spec.NumChannels = uint32(channels)
		}
	}
}

// NewProcessSpec applies zero or more options to the default spec.
func NewProcessSpec(opts ...ProcessorOption) ProcessSpec {
	spec := DefaultProcessSpec()
	for _, opt := range opts {
		if opt != nil {
			opt(&spec)
		}
	}
	return spec
}

// Validate reports whether the spec can be used to prepare a processor.
func (s ProcessSpec) Validate() error {
	if s.SampleRate <= 0 || math.IsNaN(s.SampleRate) || math.IsInf(s.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be > 0: %f", ErrInvalidSpec, s.SampleRate)
	}
	if s.MaximumBlockSize == 0 {
		return fmt.Errorf("%w: maximum block size must be > 0", ErrInvalidSpec)
	}
	if s.NumChannels == 0 {
		return fmt.Errorf("%w: channel count must be > 0", ErrInvalidSpec)
	}
	return nil
}

// Nyquist returns half the sample rate.
func (s ProcessSpec) Nyquist() float64 {
	return 0.5 * s.SampleRate
}

// MsToSamples converts a duration in milliseconds to samples at the spec rate.
func (s ProcessSpec) MsToSamples(ms float64) float64 {
	return ms * 0.001 * s.SampleRate
}
