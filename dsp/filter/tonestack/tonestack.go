package tonestack

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
)

// Components are the tone-stack part values in farads and ohms.
type Components struct {
	C1, C2, C3     float64
	R1, R2, R3, R4 float64
}

var (
	// Bassman is the 5F6-A guitar voicing.
	Bassman = Components{C1: 250e-12, C2: 20e-9, C3: 20e-9, R1: 250e3, R2: 1e6, R3: 25e3, R4: 56e3}
	// BassmanBass widens the bass and mid coupling caps for bass guitar.
	BassmanBass = Components{C1: 250e-12, C2: 47e-9, C3: 22e-9, R1: 250e3, R2: 1e6, R3: 25e3, R4: 56e3}
)

const (
	// FlatControl is the pot position the makeup gain is referenced to.
	FlatControl = 0.5
	// ReferenceHz is the frequency the makeup gain is referenced to.
	ReferenceHz = 1000.0

	bassTaper = 3.4
)

// ToneStack is a multi-channel third-order tone stack.
type ToneStack struct {
	parts      Components
	sampleRate float64

	bass, mid, treble float64

	b      [4]float64
	a      [4]float64 // a[0] == 1
	makeup float64

	hist [][6]float64 // x1 x2 x3 y1 y2 y3
}

// New returns a tone stack with all controls at FlatControl. Call Prepare
// before processing.
func New(parts Components) (*ToneStack, error) {
	for _, v := range []float64{parts.C1, parts.C2, parts.C3, parts.R1, parts.R2, parts.R3, parts.R4} {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("tonestack component values must be > 0: %+v", parts)
		}
	}

	return &ToneStack{
		parts:  parts,
		bass:   FlatControl,
		mid:    FlatControl,
		treble: FlatControl,
		makeup: 1,
		b:      [4]float64{1},
		a:      [4]float64{1},
	}, nil
}

// Prepare binds the stack to a sample rate and channel count, recomputes the
// makeup gain and clears history.
func (s *ToneStack) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	s.sampleRate = spec.SampleRate
	s.hist = make([][6]float64, spec.NumChannels)

	s.makeup = 1

	b, a := s.design(FlatControl, FlatControl, FlatControl)
	if h := cmplx.Abs(response(b, a, ReferenceHz, s.sampleRate)); h > core.Epsilon {
		s.makeup = 1 / h
	}

	s.update()

	return nil
}

// SetBass sets the bass pot in [0, 1].
func (s *ToneStack) SetBass(v float64) {
	s.setControl(&s.bass, v)
}

// SetMid sets the mid pot in [0, 1].
func (s *ToneStack) SetMid(v float64) {
	s.setControl(&s.mid, v)
}

// SetTreble sets the treble pot in [0, 1].
func (s *ToneStack) SetTreble(v float64) {
	s.setControl(&s.treble, v)
}

// Controls returns the bass, mid and treble positions.
func (s *ToneStack) Controls() (bass, mid, treble float64) {
	return s.bass, s.mid, s.treble
}

func (s *ToneStack) setControl(dst *float64, v float64) {
	v = core.Clamp(v, 0, 1)
	if v == *dst {
		return
	}

	*dst = v
	s.update()
}

func (s *ToneStack) update() {
	if s.sampleRate <= 0 {
		return
	}

	s.b, s.a = s.design(s.bass, s.mid, s.treble)
	for i := range s.b {
		s.b[i] *= s.makeup
	}
}

// design returns normalized z-domain coefficients without makeup gain.
func (s *ToneStack) design(bass, mid, treble float64) (b, a [4]float64) {
	p := s.parts
	c1, c2, c3 := p.C1, p.C2, p.C3
	r1, r2, r3, r4 := p.R1, p.R2, p.R3, p.R4

	l := math.Exp((bass - 1) * bassTaper)
	m := mid
	t := treble

	b1 := t*c1*r1 + m*c3*r3 + l*(c1*r2+c2*r2) + (c1*r3 + c2*r3)
	b2 := t*(c1*c2*r1*r4+c1*c3*r1*r4) -
		m*m*(c1*c3*r3*r3+c2*c3*r3*r3) +
		m*(c1*c3*r1*r3+c1*c3*r3*r3+c2*c3*r3*r3) +
		l*(c1*c2*r1*r2+c1*c2*r2*r4+c1*c3*r2*r4) +
		l*m*(c1*c3*r2*r3+c2*c3*r2*r3) +
		(c1*c2*r1*r3 + c1*c2*r3*r4 + c1*c3*r3*r4)
	b3 := l*m*(c1*c2*c3*r1*r2*r3+c1*c2*c3*r2*r3*r4) -
		m*m*(c1*c2*c3*r1*r3*r3+c1*c2*c3*r3*r3*r4) +
		m*(c1*c2*c3*r1*r3*r3+c1*c2*c3*r3*r3*r4) +
		t*c1*c2*c3*r1*r3*r4 -
		t*m*c1*c2*c3*r1*r3*r4 +
		t*l*c1*c2*c3*r1*r2*r4

	a0 := 1.0
	a1 := (c1*r1 + c1*r3 + c2*r3 + c2*r4 + c3*r4) + m*c3*r3 + l*(c1*r2+c2*r2)
	a2 := m*(c1*c3*r1*r3-c2*c3*r3*r4+c1*c3*r3*r3+c2*c3*r3*r3) +
		l*m*(c1*c3*r2*r3+c2*c3*r2*r3) -
		m*m*(c1*c3*r3*r3+c2*c3*r3*r3) +
		l*(c1*c2*r2*r4+c1*c2*r1*r2+c1*c3*r2*r4+c2*c3*r2*r4) +
		(c1*c2*r1*r4 + c1*c3*r1*r4 + c1*c2*r3*r4 + c1*c2*r1*r3 + c1*c3*r3*r4 + c2*c3*r3*r4)
	a3 := l*m*(c1*c2*c3*r1*r2*r3+c1*c2*c3*r2*r3*r4) -
		m*m*(c1*c2*c3*r1*r3*r3+c1*c2*c3*r3*r3*r4) +
		m*(c1*c2*c3*r3*r3*r4+c1*c2*c3*r1*r3*r3-c1*c2*c3*r1*r3*r4) +
		l*c1*c2*c3*r1*r2*r4 +
		c1*c2*c3*r1*r3*r4

	k := 2 * s.sampleRate
	k2 := k * k
	k3 := k2 * k

	b = [4]float64{
		-b1*k - b2*k2 - b3*k3,
		-b1*k + b2*k2 + 3*b3*k3,
		b1*k + b2*k2 - 3*b3*k3,
		b1*k - b2*k2 + b3*k3,
	}
	a = [4]float64{
		-a0 - a1*k - a2*k2 - a3*k3,
		-3*a0 - a1*k + a2*k2 + 3*a3*k3,
		-3*a0 + a1*k + a2*k2 - 3*a3*k3,
		-a0 + a1*k - a2*k2 + a3*k3,
	}

	norm := a[0]
	for i := range b {
		b[i] /= norm
		a[i] /= norm
	}

	return b, a
}

// ProcessSample filters one sample of channel ch.
func (s *ToneStack) ProcessSample(ch int, x float64) float64 {
	h := &s.hist[ch]

	y := s.b[0]*x + s.b[1]*h[0] + s.b[2]*h[1] + s.b[3]*h[2] -
		s.a[1]*h[3] - s.a[2]*h[4] - s.a[3]*h[5]
	y = core.FlushDenormals(y)

	h[2], h[1], h[0] = h[1], h[0], x
	h[5], h[4], h[3] = h[4], h[3], y

	return y
}

// Process filters every prepared channel of buf in place. Unprepared stacks
// pass audio through.
func (s *ToneStack) Process(buf *buffer.Audio) {
	n := min(buf.NumChannels(), len(s.hist))
	for ch := range n {
		data := buf.Channel(ch)
		for i, x := range data {
			data[i] = s.ProcessSample(ch, x)
		}
	}
}

// Reset zeroes the sample history.
func (s *ToneStack) Reset() {
	clear(s.hist)
}

// Response returns the magnitude of the current response at freqHz,
// including makeup gain.
func (s *ToneStack) Response(freqHz float64) float64 {
	if s.sampleRate <= 0 {
		return 1
	}

	return cmplx.Abs(response(s.b, s.a, freqHz, s.sampleRate))
}

func response(b, a [4]float64, freqHz, sampleRate float64) complex128 {
	z1 := cmplx.Exp(complex(0, -2*math.Pi*freqHz/sampleRate))

	var num, den complex128

	zk := complex(1, 0)
	for i := range b {
		num += complex(b[i], 0) * zk
		den += complex(a[i], 0) * zk
		zk *= z1
	}

	return num / den
}
