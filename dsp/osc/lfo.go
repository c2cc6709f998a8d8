// Package osc provides low-frequency oscillators for modulating delay reads
// and filter cutoffs.
package osc

import (
	"fmt"
	"math"
)

const twoPi = 2 * math.Pi

// LFO is a sine oscillator with a phase accumulator.
type LFO struct {
	sampleRate float64
	frequency  float64
	phase      float64
	increment  float64
}

// NewLFO returns a sine LFO at frequency Hz starting at phase (radians).
func NewLFO(sampleRate, frequency, phase float64) (*LFO, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("lfo sample rate must be > 0: %f", sampleRate)
	}

	l := &LFO{sampleRate: sampleRate}
	l.SetFrequency(frequency)
	l.SetPhase(phase)

	return l, nil
}

// SetSampleRate rebinds the oscillator, keeping frequency and phase.
func (l *LFO) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("lfo sample rate must be > 0: %f", sampleRate)
	}

	l.sampleRate = sampleRate
	l.SetFrequency(l.frequency)

	return nil
}

// SetFrequency sets the rate in Hz. Negative or non-finite values stop it.
func (l *LFO) SetFrequency(hz float64) {
	if hz < 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		hz = 0
	}

	l.frequency = hz
	l.increment = twoPi * hz / l.sampleRate
}

// Frequency returns the rate in Hz.
func (l *LFO) Frequency() float64 {
	return l.frequency
}

// SetPhase sets the phase in radians.
func (l *LFO) SetPhase(phase float64) {
	l.phase = math.Mod(phase, twoPi)
	if l.phase < 0 {
		l.phase += twoPi
	}
}

// Phase returns the phase in radians, in [0, 2*pi).
func (l *LFO) Phase() float64 {
	return l.phase
}

// Next returns sin(phase) and advances by one sample.
func (l *LFO) Next() float64 {
	y := math.Sin(l.phase)

	l.phase += l.increment
	if l.phase >= twoPi {
		l.phase -= twoPi
	}

	return y
}

// Skip advances the phase by n samples.
func (l *LFO) Skip(n int) {
	l.SetPhase(l.phase + l.increment*float64(n))
}
