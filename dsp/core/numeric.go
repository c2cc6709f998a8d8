package core

import "math"

// Epsilon is the floor applied to arguments of log on the audio path.
const Epsilon = 1e-9

// denormalFloor is the magnitude below which FlushDenormals returns zero.
const denormalFloor = 1e-30

// Sample is the set of floating-point types a generic kernel may process.
type Sample interface {
	~float32 | ~float64
}

// Clamp limits value to [lo, hi]. Swapped bounds are reordered.
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}

	return min(max(value, lo), hi)
}

// FlushDenormals returns zero for values too small to matter in a feedback
// path.
func FlushDenormals(x float64) float64 {
	if x > -denormalFloor && x < denormalFloor {
		return 0
	}

	return x
}

// DBToLinear converts an amplitude in dB to a linear gain.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts a linear amplitude to dB. Zero maps to -Inf and
// negative input to NaN.
func LinearToDB(linear float64) float64 {
	switch {
	case linear < 0:
		return math.NaN()
	case linear == 0:
		return math.Inf(-1)
	default:
		return 20 * math.Log10(linear)
	}
}

// SafeLog10 returns log10(max(x, Epsilon)).
func SafeLog10(x float64) float64 {
	if x < Epsilon || math.IsNaN(x) {
		x = Epsilon
	}

	return math.Log10(x)
}

// Lerp interpolates linearly from a to b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// EnsureLen returns buf resliced to n, reallocating only when its capacity
// is too small.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}
