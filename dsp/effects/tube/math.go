//go:build !fastmath

package tube

import "math"

// mathTanh computes tanh(x) using standard library math.
func mathTanh(x float64) float64 {
	return math.Tanh(x)
}

// mathSinh computes sinh(x) using standard library math.
func mathSinh(x float64) float64 {
	return math.Sinh(x)
}

// mathExp computes e^x using standard library math.
func mathExp(x float64) float64 {
	return math.Exp(x)
}
