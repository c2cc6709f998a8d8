package signal

import (
	"fmt"
	"math"
)

// Sine is a phase-continuous sine oscillator.
type Sine struct {
	phase, inc float64
	amplitude  float64
}

// NewSine returns an oscillator at freqHz for sampleRate.
func NewSine(freqHz, amplitude, sampleRate float64) (*Sine, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		return nil, fmt.Errorf("sine sample rate must be > 0: %f", sampleRate)
	}

	if freqHz <= 0 || freqHz >= sampleRate/2 || math.IsNaN(freqHz) {
		return nil, fmt.Errorf("sine frequency must be in (0, %g): %f", sampleRate/2, freqHz)
	}

	return &Sine{inc: 2 * math.Pi * freqHz / sampleRate, amplitude: amplitude}, nil
}

// Fill overwrites dst with the next len(dst) samples.
func (s *Sine) Fill(dst []float64) {
	for i := range dst {
		dst[i] = s.amplitude * math.Sin(s.phase)

		s.phase += s.inc
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}
}

// Reset rewinds the phase to zero.
func (s *Sine) Reset() {
	s.phase = 0
}
