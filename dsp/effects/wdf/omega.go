package wdf

import "math"

const (
	omegaX1 = -3.341459552768620
	omegaX2 = 8.0
	omegaA  = -1.314293149877800e-3
	omegaB  = 4.775931364975583e-2
	omegaC  = 3.631952663804445e-1
	omegaD  = 6.313183464296682e-1
)

// Omega3 approximates the Wright omega function with a piecewise cubic.
func Omega3(x float64) float64 {
	switch {
	case x < omegaX1:
		return 0
	case x < omegaX2:
		return omegaD + x*(omegaC+x*(omegaB+x*omegaA))
	default:
		return x - math.Log(x)
	}
}

// Omega4 refines Omega3 with one Newton-Raphson step on w + log(w) = x.
func Omega4(x float64) float64 {
	y := Omega3(x)
	return y - (y-math.Exp(x-y))/(y+1)
}
