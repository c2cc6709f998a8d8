//go:build fastmath

package tube

import (
	"github.com/meko-christian/algo-approx"
)

// expLimit keeps the approximation inside its accurate range; tanh and sinh
// are saturated or far beyond audio range past it.
const expLimit = 40.0

// mathExp computes e^x using fast approximation.
func mathExp(x float64) float64 {
	if x > expLimit {
		x = expLimit
	} else if x < -expLimit {
		x = -expLimit
	}

	return approx.FastExp(x)
}

// mathTanh computes tanh(x) = 1 - 2/(e^(2x)+1) using fast exponentials.
func mathTanh(x float64) float64 {
	return 1 - 2/(mathExp(2*x)+1)
}

// mathSinh computes sinh(x) = (e^x - e^-x)/2 using fast exponentials.
func mathSinh(x float64) float64 {
	e := mathExp(x)
	return 0.5 * (e - 1/e)
}
