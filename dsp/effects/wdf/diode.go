package wdf

import (
	"fmt"
	"math"
)

// Default 1N4148 parameters.
const (
	DefaultSaturationCurrent = 2.52e-9
	DefaultThermalVoltage    = 25.85e-3
)

// DiodePair is an antiparallel pair of identical diodes used as the root of
// a tree. Its reflected wave is computed in closed form from the incident one.
type DiodePair struct {
	is, vt float64

	logRIsOverVt float64
}

// NewDiodePair returns a diode pair with saturation current is (A) and
// thermal voltage vt (V). nDiodes scales vt for series strings.
func NewDiodePair(is, vt float64, nDiodes int) (*DiodePair, error) {
	if is <= 0 || math.IsNaN(is) {
		return nil, fmt.Errorf("diode saturation current must be > 0: %g", is)
	}

	if vt <= 0 || math.IsNaN(vt) {
		return nil, fmt.Errorf("diode thermal voltage must be > 0: %g", vt)
	}

	if nDiodes < 1 {
		return nil, fmt.Errorf("diode count must be >= 1: %d", nDiodes)
	}

	return &DiodePair{is: is, vt: vt * float64(nDiodes)}, nil
}

// SetImpedance adapts the pair to the port resistance of its child.
func (d *DiodePair) SetImpedance(r float64) {
	d.logRIsOverVt = math.Log(r * d.is / d.vt)
}

// Reflect returns the wave reflected for incident wave a.
func (d *DiodePair) Reflect(a float64) float64 {
	lambda := 1.0
	if a < 0 {
		lambda = -1
	}

	lav := lambda * a / d.vt

	return a - 2*d.vt*lambda*(Omega4(d.logRIsOverVt+lav)-Omega4(d.logRIsOverVt-lav))
}
