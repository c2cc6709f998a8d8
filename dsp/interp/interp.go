package interp

// Mode selects how a fractional delay read is interpolated.
type Mode int

const (
	// None truncates the delay to whole samples.
	None Mode = iota
	// Linear blends the two neighbouring samples.
	Linear
	// Thiran runs a first-order allpass over the two neighbouring samples.
	Thiran
	// Hermite uses 4-point cubic Hermite interpolation.
	Hermite
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case None:
		return "None"
	case Linear:
		return "Linear"
	case Thiran:
		return "Thiran"
	case Hermite:
		return "Hermite"
	default:
		return "Unknown"
	}
}

// Taps returns how many samples the mode reads around the integer delay,
// counting the sample before it for Hermite.
func (m Mode) Taps() int {
	switch m {
	case Linear, Thiran:
		return 2
	case Hermite:
		return 4
	default:
		return 1
	}
}

// Linear2 interpolates between x0 and x1 at position t in [0,1].
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}

// ThiranCoefficient returns the first-order allpass coefficient that delays
// by frac samples.
func ThiranCoefficient(frac float64) float64 {
	return (1 - frac) / (1 + frac)
}

// ThiranState is the state of a first-order allpass fractional-delay reader.
// Each channel needs its own instance.
type ThiranState struct {
	prev float64
}

// Tick returns the allpass output for the sample pair (x0 newer, x1 older)
// and fractional delay frac. A zero fraction passes x0 through.
func (a *ThiranState) Tick(frac, x0, x1 float64) float64 {
	if frac == 0 {
		a.prev = x0
		return x0
	}

	y := x1 + ThiranCoefficient(frac)*(x0-a.prev)
	a.prev = y

	return y
}

// Reset clears the allpass state.
func (a *ThiranState) Reset() {
	a.prev = 0
}
