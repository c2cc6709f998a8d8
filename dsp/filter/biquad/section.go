package biquad

import (
	"sync"

	"github.com/cwbudde/algo-amp/dsp/filter/biquad/internal/kernel/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Identity returns pass-through coefficients.
func Identity() Coefficients {
	return Coefficients{B0: 1}
}

// Section is a single biquad filter with coefficients and internal state.
type Section struct {
	Coefficients

	d0, d1 float64
}

var (
	processBlockImpl     registry.ProcessBlockFn
	processBlockName     string
	processBlockInitOnce sync.Once
)

// NewSection returns a Section initialized with the given coefficients
// and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y

	return y
}

// ProcessBlock filters a block of samples in-place. Zero-alloc.
func (s *Section) ProcessBlock(buf []float64) {
	s.d0, s.d1 = processBlock(s.Coefficients, s.d0, s.d1, buf)
}

// Reset clears the delay line to zero.
func (s *Section) Reset() {
	s.d0 = 0
	s.d1 = 0
}

// State returns the current delay-line state [d0, d1].
func (s *Section) State() [2]float64 {
	return [2]float64{s.d0, s.d1}
}

// SetState restores a previously saved delay-line state.
func (s *Section) SetState(state [2]float64) {
	s.d0 = state[0]
	s.d1 = state[1]
}

// KernelName reports which block kernel was selected for this CPU.
func KernelName() string {
	processBlockInitOnce.Do(initProcessBlockKernel)
	return processBlockName
}

func processBlock(c Coefficients, d0, d1 float64, buf []float64) (float64, float64) {
	processBlockInitOnce.Do(initProcessBlockKernel)

	return processBlockImpl(registry.Coefficients{
		B0: c.B0,
		B1: c.B1,
		B2: c.B2,
		A1: c.A1,
		A2: c.A2,
	}, d0, d1, buf)
}

func initProcessBlockKernel() {
	entry := registry.Global.Lookup(cpu.DetectFeatures())
	if entry == nil || entry.ProcessBlock == nil {
		panic("biquad: no ProcessBlock kernel registered (missing generic fallback?)")
	}

	processBlockImpl = entry.ProcessBlock
	processBlockName = entry.Name
}
