// Package testutil holds deterministic test signals and float comparison
// helpers shared by the package tests.
package testutil

import (
	"math"
	"math/rand/v2"
)

// DeterministicSine returns length samples of a sine starting at phase zero.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	w := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(w*float64(i))
	}

	return out
}

// DeterministicNoise returns uniform noise in [-amplitude, amplitude] that
// depends only on seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewPCG(uint64(seed), 0x5851f42d4c957f2d))
	out := make([]float64, length)

	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}

	return out
}

// Impulse returns length zeros with a unit sample at pos. Out of range
// positions give all zeros.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// DC returns length copies of value.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// RMS returns the root mean square of x, zero for an empty slice.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range x {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(x)))
}

// Peak returns the largest absolute value in x.
func Peak(x []float64) float64 {
	p := 0.0
	for _, v := range x {
		p = max(p, math.Abs(v))
	}

	return p
}
