package reverb

import (
	"fmt"

	"github.com/cwbudde/algo-amp/dsp/core"
)

// Type selects a reverb voicing.
type Type int

const (
	TypeRoom Type = iota
	TypeHall
	TypePlate
)

// TypeNames lists the voicings in index order.
var TypeNames = []string{"room", "hall", "plate"}

// String returns the voicing name.
func (t Type) String() string {
	if t >= 0 && int(t) < len(TypeNames) {
		return TypeNames[t]
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

type voicing struct {
	sizeMs    float64
	rt60      float64
	early     float64
	dampening float64
	modRate   float64
}

var voicings = [...]voicing{
	TypeRoom:  {sizeMs: 40, rt60: 0.8, early: 0.6, dampening: 0.6, modRate: 0.3},
	TypeHall:  {sizeMs: 90, rt60: 2.2, early: 0.4, dampening: 0.45, modRate: 0.15},
	TypePlate: {sizeMs: 25, rt60: 1.6, early: 0.2, dampening: 0.8, modRate: 0.6},
}

// ParamsFor maps a voicing and the decay and size controls in [0, 1] onto
// room parameters. Out-of-range types fall back to TypeRoom.
func ParamsFor(t Type, decay, size, preDelaySamples float64) Params {
	if t < 0 || int(t) >= len(voicings) {
		t = TypeRoom
	}

	v := voicings[t]
	decay = core.Clamp(decay, 0, 1)
	size = core.Clamp(size, 0, 1)

	return Params{
		RoomSizeMs:       v.sizeMs * (0.5 + 1.5*size),
		RT60:             v.rt60 * (0.25 + 1.75*decay),
		EarlyReflections: v.early,
		Dampening:        v.dampening,
		ModulationRate:   v.modRate,
		PreDelaySamples:  max(preDelaySamples, 0),
	}
}
