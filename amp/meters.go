package amp

import (
	"math"
	"sync/atomic"
)

// Meters is a snapshot of the processor's levels for display.
type Meters struct {
	InputPeak       [2]float64
	OutputPeak      [2]float64
	GainReductionDB float64
	Blocks          uint64
}

// meterBank stores float64 bits so the control thread can read levels
// without locking the audio thread.
type meterBank struct {
	input  [2]atomic.Uint64
	output [2]atomic.Uint64
	gr     atomic.Uint64
	blocks atomic.Uint64
}

func storeFloat(dst *atomic.Uint64, v float64) {
	dst.Store(math.Float64bits(v))
}

func loadFloat(src *atomic.Uint64) float64 {
	return math.Float64frombits(src.Load())
}

func (m *meterBank) snapshot() Meters {
	var s Meters
	for ch := range 2 {
		s.InputPeak[ch] = loadFloat(&m.input[ch])
		s.OutputPeak[ch] = loadFloat(&m.output[ch])
	}

	s.GainReductionDB = loadFloat(&m.gr)
	s.Blocks = m.blocks.Load()

	return s
}
