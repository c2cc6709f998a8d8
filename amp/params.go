package amp

import (
	"fmt"

	"github.com/cwbudde/algo-amp/dsp/effects/cabinet"
	"github.com/cwbudde/algo-amp/dsp/effects/reverb"
	"github.com/cwbudde/algo-amp/dsp/param"
)

// Kind selects which signal chain a Processor runs.
type Kind int

const (
	KindGuitar Kind = iota
	KindBass
	KindChannel
)

// String returns the chain name.
func (k Kind) String() string {
	switch k {
	case KindGuitar:
		return "guitar"
	case KindBass:
		return "bass"
	case KindChannel:
		return "channel"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a chain name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range []Kind{KindGuitar, KindBass, KindChannel} {
		if k.String() == name {
			return k, nil
		}
	}

	return 0, fmt.Errorf("unknown amp kind %q", name)
}

// Parameter ids. Gains are in dB, delays in ms, everything else in [0, 1]
// unless noted.
const (
	ParamBypass     = "amp.bypass" // choice: off, on
	ParamInputGain  = "input.gain"
	ParamOutputGain = "output.gain"
	ParamCompAmount = "comp.amount"
	ParamCompLink   = "comp.link" // choice: unlinked, linked
	ParamDrive      = "drive"
	ParamPreamp     = "preamp.gain"
	ParamBass       = "tone.bass"
	ParamMid        = "tone.mid"
	ParamTreble     = "tone.treble"
	ParamPower      = "power.drive"
	ParamCabType    = "cab.type" // choice: cabinet.TypeNames
	ParamCabMic     = "cab.mic"
	ParamEnhancer   = "enhancer"
	ParamReverbMix  = "reverb.mix"
)

var (
	switchNames = []string{"off", "on"}
	linkNames   = []string{"unlinked", "linked"}
)

// NewRegistry returns a registry holding every parameter the kind's chain
// polls, set to its default.
func NewRegistry(kind Kind) (*param.Registry, error) {
	reg := param.NewRegistry()

	floats := []*param.Float{
		param.NewFloat(ParamInputGain, -24, 24, 0),
		param.NewFloat(ParamOutputGain, -48, 12, 0),
		param.NewFloat(ParamCompAmount, 0, 1, 0.3),
		param.NewFloat(ParamPreamp, 0, 1, 0.5),
		param.NewFloat(ParamBass, 0, 1, 0.5),
		param.NewFloat(ParamMid, 0, 1, 0.5),
		param.NewFloat(ParamTreble, 0, 1, 0.5),
		param.NewFloat(ParamEnhancer, 0, 1, 0.2),
		param.NewFloat(ParamReverbMix, 0, 1, 0.15),
		param.NewFloat(reverb.ParamDecay, 0, 1, 0.5),
		param.NewFloat(reverb.ParamSize, 0, 1, 0.5),
		param.NewFloat(reverb.ParamPreDelay, 0, 200, 10),
	}

	choices := []*param.Choice{
		param.NewChoice(ParamBypass, switchNames, 0),
		param.NewChoice(ParamCompLink, linkNames, 1),
		param.NewChoice(reverb.ParamType, reverb.TypeNames, int(reverb.TypeRoom)),
	}

	switch kind {
	case KindGuitar:
		floats = append(floats,
			param.NewFloat(ParamDrive, 0, 1, 0.3),
			param.NewFloat(ParamPower, 0, 1, 0.3),
			param.NewFloat(ParamCabMic, 0, 1, 0.5),
		)
		choices = append(choices, param.NewChoice(ParamCabType, cabinet.TypeNames, int(cabinet.Medium)))
	case KindBass:
		floats = append(floats,
			param.NewFloat(ParamPower, 0, 1, 0.2),
			param.NewFloat(ParamCabMic, 0, 1, 0.4),
		)
		choices = append(choices, param.NewChoice(ParamCabType, cabinet.TypeNames, int(cabinet.Large)))
	case KindChannel:
	default:
		return nil, fmt.Errorf("unknown amp kind: %d", int(kind))
	}

	for _, p := range floats {
		if err := reg.AddFloat(p); err != nil {
			return nil, err
		}
	}

	for _, c := range choices {
		if err := reg.AddChoice(c); err != nil {
			return nil, err
		}
	}

	return reg, nil
}
