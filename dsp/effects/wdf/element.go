package wdf

import (
	"fmt"
	"math"
)

// Element is a one-port wave digital element.
type Element interface {
	// Impedance returns the port resistance.
	Impedance() float64
	// Incident delivers the wave travelling into the element.
	Incident(a float64)
	// Reflected computes and returns the wave leaving the element.
	Reflected() float64
}

// Resistor is an adapted resistor; it reflects nothing.
type Resistor struct {
	r    float64
	a, b float64
}

// NewResistor returns a resistor of r ohms.
func NewResistor(r float64) (*Resistor, error) {
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, fmt.Errorf("wdf resistance must be > 0: %f", r)
	}

	return &Resistor{r: r}, nil
}

// SetResistance changes the resistance. The parent must Propagate afterwards.
func (r *Resistor) SetResistance(ohms float64) {
	if ohms > 0 {
		r.r = ohms
	}
}

func (r *Resistor) Impedance() float64 { return r.r }
func (r *Resistor) Incident(a float64) { r.a = a }
func (r *Resistor) Reflected() float64 { return r.b }

// Voltage returns the voltage across the resistor.
func (r *Resistor) Voltage() float64 { return 0.5 * (r.a + r.b) }

// ResistiveSource is a voltage source with a series resistance.
type ResistiveSource struct {
	r, v float64
	a    float64
}

// NewResistiveSource returns a source with r ohms of series resistance.
func NewResistiveSource(r float64) (*ResistiveSource, error) {
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, fmt.Errorf("wdf source resistance must be > 0: %f", r)
	}

	return &ResistiveSource{r: r}, nil
}

// SetVoltage sets the source voltage for the next Reflected call.
func (s *ResistiveSource) SetVoltage(v float64) { s.v = v }

func (s *ResistiveSource) Impedance() float64 { return s.r }
func (s *ResistiveSource) Incident(a float64) { s.a = a }
func (s *ResistiveSource) Reflected() float64 { return s.v }

// Capacitor is a bilinear-transform capacitor with port resistance
// 1/(2*fs*C).
type Capacitor struct {
	c, r float64
	z    float64
}

// NewCapacitor returns a capacitor of c farads at sampleRate.
func NewCapacitor(c, sampleRate float64) (*Capacitor, error) {
	if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		return nil, fmt.Errorf("wdf capacitance must be > 0: %g", c)
	}

	cp := &Capacitor{c: c}
	if err := cp.Prepare(sampleRate); err != nil {
		return nil, err
	}

	return cp, nil
}

// Prepare recomputes the port resistance for sampleRate and clears state.
func (c *Capacitor) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("wdf sample rate must be > 0: %f", sampleRate)
	}

	c.r = 1 / (2 * sampleRate * c.c)
	c.z = 0

	return nil
}

func (c *Capacitor) Impedance() float64 { return c.r }
func (c *Capacitor) Incident(a float64) { c.z = a }
func (c *Capacitor) Reflected() float64 { return c.z }

// Reset discharges the capacitor.
func (c *Capacitor) Reset() { c.z = 0 }

// Series is a three-port series adaptor adapted at its parent port.
type Series struct {
	p1, p2 Element
	r      float64
	gamma1 float64

	a1, a2 float64
}

// NewSeries joins p1 and p2 in series.
func NewSeries(p1, p2 Element) *Series {
	s := &Series{p1: p1, p2: p2}
	s.Propagate()

	return s
}

// Propagate recomputes the port resistance from the children.
func (s *Series) Propagate() {
	r1 := s.p1.Impedance()
	s.r = r1 + s.p2.Impedance()
	s.gamma1 = r1 / s.r
}

func (s *Series) Impedance() float64 { return s.r }

func (s *Series) Reflected() float64 {
	s.a1 = s.p1.Reflected()
	s.a2 = s.p2.Reflected()

	return -(s.a1 + s.a2)
}

// Incident must follow a Reflected call in the same sample.
func (s *Series) Incident(a float64) {
	b1 := s.a1 - s.gamma1*(a+s.a1+s.a2)
	s.p1.Incident(b1)
	s.p2.Incident(-(a + b1))
}

// Parallel is a three-port parallel adaptor adapted at its parent port.
type Parallel struct {
	p1, p2 Element
	r      float64
	gamma1 float64

	b     float64
	bDiff float64
	b2In  float64
}

// NewParallel joins p1 and p2 in parallel.
func NewParallel(p1, p2 Element) *Parallel {
	p := &Parallel{p1: p1, p2: p2}
	p.Propagate()

	return p
}

// Propagate recomputes the port resistance from the children.
func (p *Parallel) Propagate() {
	g1 := 1 / p.p1.Impedance()
	g2 := 1 / p.p2.Impedance()

	p.r = 1 / (g1 + g2)
	p.gamma1 = g1 / (g1 + g2)
}

func (p *Parallel) Impedance() float64 { return p.r }

func (p *Parallel) Reflected() float64 {
	a1 := p.p1.Reflected()
	a2 := p.p2.Reflected()

	p.bDiff = a2 - a1
	p.b2In = a2
	p.b = a2 - p.gamma1*p.bDiff

	return p.b
}

// Incident must follow a Reflected call in the same sample.
func (p *Parallel) Incident(a float64) {
	b2 := a + p.b - p.b2In
	p.p1.Incident(b2 + p.bDiff)
	p.p2.Incident(b2)
}
