package param

import "math"

// Ramp selects how a Smoothed value approaches its target.
type Ramp int

const (
	// RampLinear moves by a constant step per sample.
	RampLinear Ramp = iota
	// RampMultiplicative moves by a constant ratio per sample. Values are
	// kept strictly positive.
	RampMultiplicative
)

const minMultiplicativeValue = 1e-6

// Smoothed ramps towards a target over a fixed duration. Next must be called
// exactly once per sample while IsSmoothing reports true.
type Smoothed struct {
	ramp Ramp

	current float64
	target  float64
	step    float64

	countdown     int
	stepsToTarget int
}

// NewSmoothed returns a value of the given ramp kind resting at initial.
func NewSmoothed(ramp Ramp, initial float64) *Smoothed {
	s := &Smoothed{ramp: ramp}
	s.SetCurrentAndTarget(initial)

	return s
}

// Reset sets the ramp duration for sampleRate and stops any ramp in flight.
func (s *Smoothed) Reset(sampleRate, rampMs float64) {
	if sampleRate > 0 && rampMs > 0 {
		s.stepsToTarget = int(math.Round(rampMs * 0.001 * sampleRate))
	} else {
		s.stepsToTarget = 0
	}

	s.SetCurrentAndTarget(s.target)
}

// SetCurrentAndTarget jumps to v without ramping.
func (s *Smoothed) SetCurrentAndTarget(v float64) {
	v = s.sanitize(v)
	s.current = v
	s.target = v
	s.countdown = 0
}

// SetTarget starts a ramp from the current value to v. Setting the current
// target again is a no-op.
func (s *Smoothed) SetTarget(v float64) {
	v = s.sanitize(v)
	if v == s.target {
		return
	}

	if s.stepsToTarget <= 0 {
		s.SetCurrentAndTarget(v)
		return
	}

	s.target = v
	s.countdown = s.stepsToTarget

	switch s.ramp {
	case RampMultiplicative:
		s.step = math.Exp((math.Log(s.target) - math.Log(s.current)) / float64(s.countdown))
	default:
		s.step = (s.target - s.current) / float64(s.countdown)
	}
}

// Next advances the ramp by one sample and returns the new value.
func (s *Smoothed) Next() float64 {
	if s.countdown <= 0 {
		return s.target
	}

	s.countdown--
	if s.countdown == 0 {
		s.current = s.target
		return s.current
	}

	if s.ramp == RampMultiplicative {
		s.current *= s.step
	} else {
		s.current += s.step
	}

	return s.current
}

// Skip advances the ramp by n samples and returns the resulting value.
func (s *Smoothed) Skip(n int) float64 {
	if n >= s.countdown {
		s.SetCurrentAndTarget(s.target)
		return s.target
	}

	if s.ramp == RampMultiplicative {
		s.current *= math.Pow(s.step, float64(n))
	} else {
		s.current += s.step * float64(n)
	}

	s.countdown -= n

	return s.current
}

// IsSmoothing reports whether the target has not been reached yet.
func (s *Smoothed) IsSmoothing() bool { return s.countdown > 0 }

// Current returns the value produced by the last Next call.
func (s *Smoothed) Current() float64 { return s.current }

// Target returns the ramp target.
func (s *Smoothed) Target() float64 { return s.target }

func (s *Smoothed) sanitize(v float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}

	if s.ramp == RampMultiplicative && v < minMultiplicativeValue {
		v = minMultiplicativeValue
	}

	return v
}
