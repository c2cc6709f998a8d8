package resample

// Allpass coefficients for an 8th-order steep halfband (two paths of four
// sections each, about 70 dB rejection with transition 0.08 of the rate).
var (
	halfbandPathA = [...]float64{0.07711507983241622, 0.4820706250610472, 0.7968204713315797, 0.9412514277740471}
	halfbandPathB = [...]float64{0.2659685265210946, 0.6651041532634957, 0.8841015085506159, 0.9820054141886075}
)

// allpass2 is a second-order allpass in z^-2: y = a*(x - y[n-2]) + x[n-2].
type allpass2 struct {
	a      float64
	x1, x2 float64
	y1, y2 float64
}

func (s *allpass2) process(x float64) float64 {
	y := s.x2 + (x-s.y2)*s.a

	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y

	return y
}

// Halfband is a mono polyphase IIR halfband low-pass.
type Halfband struct {
	a, b  [len(halfbandPathA)]allpass2
	prevB float64
}

// NewHalfband returns a halfband filter with zero state.
func NewHalfband() *Halfband {
	h := &Halfband{}
	h.init()

	return h
}

func (h *Halfband) init() {
	for i := range h.a {
		h.a[i].a = halfbandPathA[i]
		h.b[i].a = halfbandPathB[i]
	}
}

// Process filters one sample.
func (h *Halfband) Process(x float64) float64 {
	ya := x
	for i := range h.a {
		ya = h.a[i].process(ya)
	}

	yb := x
	for i := range h.b {
		yb = h.b[i].process(yb)
	}

	y := 0.5 * (ya + h.prevB)
	h.prevB = yb

	return y
}

// Reset clears the filter state.
func (h *Halfband) Reset() {
	*h = Halfband{}
	h.init()
}
