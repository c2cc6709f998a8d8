package amp

import (
	"fmt"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/effects/cabinet"
	"github.com/cwbudde/algo-amp/dsp/effects/dynamics"
	"github.com/cwbudde/algo-amp/dsp/effects/enhancer"
	"github.com/cwbudde/algo-amp/dsp/effects/reverb"
	"github.com/cwbudde/algo-amp/dsp/effects/tube"
	"github.com/cwbudde/algo-amp/dsp/effects/wdf"
	"github.com/cwbudde/algo-amp/dsp/filter/tonestack"
	"github.com/cwbudde/algo-amp/dsp/param"
)

// link is one named stage plus the hook that pulls its parameters.
type link struct {
	name   string
	stage  Stage
	update func(src param.Source)
}

// Chain runs the stages of one amp kind in order.
type Chain struct {
	kind  Kind
	src   param.Source
	links []link

	comp   *dynamics.Opto
	reverb *reverb.Manager
}

// preampGains maps the preamp control onto asymmetric triode gains.
func preampGains(g, scale float64) (gp, gn float64) {
	gp = scale * (1 + 19*core.Clamp(g, 0, 1))
	return gp, 0.6 * gp
}

// NewChain builds the stages of kind reading parameters from src.
func NewChain(kind Kind, src param.Source, cfg config) (*Chain, error) {
	if src == nil {
		return nil, fmt.Errorf("amp chain needs a parameter source")
	}

	c := &Chain{kind: kind, src: src}

	var err error

	switch kind {
	case KindGuitar:
		err = c.buildGuitar(cfg)
	case KindBass:
		err = c.buildBass(cfg)
	case KindChannel:
		err = c.buildChannel(cfg)
	default:
		err = fmt.Errorf("unknown amp kind: %d", int(kind))
	}

	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Chain) add(name string, stage Stage, update func(param.Source)) {
	c.links = append(c.links, link{name: name, stage: stage, update: update})
}

func (c *Chain) addCompressor(profile dynamics.Profile) error {
	comp, err := dynamics.NewOpto(profile)
	if err != nil {
		return err
	}

	c.comp = comp
	c.add("compressor", comp, func(src param.Source) {
		comp.SetAmount(src.Float(ParamCompAmount))
		comp.SetLinked(src.Choice(ParamCompLink) == 1)
	})

	return nil
}

func (c *Chain) addTriode(name string, scale float64) error {
	t, err := tube.NewTriode()
	if err != nil {
		return err
	}

	c.add(name, t, func(src param.Source) {
		t.SetGains(preampGains(src.Float(ParamPreamp), scale))
	})

	return nil
}

func (c *Chain) addToneStack(parts tonestack.Components) error {
	ts, err := tonestack.New(parts)
	if err != nil {
		return err
	}

	c.add("tonestack", ts, func(src param.Source) {
		bass, mid, treble := ts.Controls()

		// Each setter recomputes the full coefficient set.
		if v := src.Float(ParamBass); v != bass {
			ts.SetBass(v)
		}

		if v := src.Float(ParamMid); v != mid {
			ts.SetMid(v)
		}

		if v := src.Float(ParamTreble); v != treble {
			ts.SetTreble(v)
		}
	})

	return nil
}

func (c *Chain) addCabinet(def cabinet.Type) error {
	cab, err := cabinet.New(cabinet.WithType(def))
	if err != nil {
		return err
	}

	c.add("cabinet", cab, func(src param.Source) {
		cab.SetType(cabinet.Type(src.Choice(ParamCabType)))
		cab.SetMicPosition(src.Float(ParamCabMic))
	})

	return nil
}

func (c *Chain) addReverb(cfg config) error {
	m, err := reverb.NewManager(c.src, cfg.reverbOptions...)
	if err != nil {
		return err
	}

	stage := &reverbStage{manager: m}
	c.reverb = m
	c.add("reverb", stage, func(src param.Source) {
		stage.mix = src.Float(ParamReverbMix)
	})

	return nil
}

func (c *Chain) buildGuitar(cfg config) error {
	if err := c.addCompressor(dynamics.ProfileGuitar); err != nil {
		return err
	}

	c.add("prefilter", newPreFilter(40, 7000), nil)

	clipper, err := wdf.NewClipper()
	if err != nil {
		return err
	}

	c.add("clipper", clipper, func(src param.Source) {
		clipper.SetDistortion(src.Float(ParamDrive))
	})

	if err := c.addTriode("triode1", 1); err != nil {
		return err
	}

	if err := c.addTriode("triode2", 0.5); err != nil {
		return err
	}

	if err := c.addToneStack(tonestack.Bassman); err != nil {
		return err
	}

	power, err := tube.NewPentode(tube.Classic{Lp: 1, Ln: 0.7})
	if err != nil {
		return err
	}

	c.add("power", power, func(src param.Source) {
		power.SetDrive(1 + 7*src.Float(ParamPower))
	})

	if err := c.addCabinet(cabinet.Medium); err != nil {
		return err
	}

	hf, err := enhancer.NewHF()
	if err != nil {
		return err
	}

	c.add("enhancer", hf, func(src param.Source) {
		hf.SetAmount(src.Float(ParamEnhancer))
	})

	return c.addReverb(cfg)
}

func (c *Chain) buildBass(cfg config) error {
	if err := c.addCompressor(dynamics.ProfileBass); err != nil {
		return err
	}

	c.add("prefilter", newPreFilter(25, 5000), nil)

	if err := c.addTriode("triode", 1); err != nil {
		return err
	}

	if err := c.addToneStack(tonestack.BassmanBass); err != nil {
		return err
	}

	power, err := tube.NewPentode(tube.Nu{Kp: 1.2, Kn: 0.8})
	if err != nil {
		return err
	}

	c.add("power", power, func(src param.Source) {
		power.SetDrive(1 + 5*src.Float(ParamPower))
	})

	if err := c.addCabinet(cabinet.Large); err != nil {
		return err
	}

	lf, err := enhancer.NewLF()
	if err != nil {
		return err
	}

	c.add("enhancer", lf, func(src param.Source) {
		lf.SetAmount(src.Float(ParamEnhancer))
	})

	return c.addReverb(cfg)
}

func (c *Chain) buildChannel(cfg config) error {
	if err := c.addCompressor(dynamics.ProfileChannel); err != nil {
		return err
	}

	c.add("prefilter", newPreFilter(20, 18000), nil)

	if err := c.addTriode("triode", 0.25); err != nil {
		return err
	}

	eq := newEqualizer()
	c.add("eq", eq, func(src param.Source) {
		eq.set(0, src.Float(ParamBass))
		eq.set(1, src.Float(ParamMid))
		eq.set(2, src.Float(ParamTreble))
	})

	hf, err := enhancer.NewHF()
	if err != nil {
		return err
	}

	c.add("enhancer", hf, func(src param.Source) {
		hf.SetAmount(src.Float(ParamEnhancer))
	})

	return c.addReverb(cfg)
}

// Kind returns the chain kind.
func (c *Chain) Kind() Kind { return c.kind }

// Stages returns the stage names in processing order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.links))
	for i, l := range c.links {
		names[i] = l.name
	}

	return names
}

// Prepare pulls the current parameters and prepares every stage.
func (c *Chain) Prepare(spec core.ProcessSpec) error {
	for _, l := range c.links {
		if l.update != nil {
			l.update(c.src)
		}

		if err := l.stage.Prepare(spec); err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
	}

	return nil
}

// Process polls parameters and runs every stage over buf.
func (c *Chain) Process(buf *buffer.Audio) {
	for _, l := range c.links {
		if l.update != nil {
			l.update(c.src)
		}

		l.stage.Process(buf)
	}
}

// Reset clears the state of every stage.
func (c *Chain) Reset() {
	for _, l := range c.links {
		l.stage.Reset()
	}
}

// GainReduction returns the compressor's deepest gain since the last call.
func (c *Chain) GainReduction() float64 {
	return c.comp.GainReduction()
}

// Reverb returns the chain's reverb manager.
func (c *Chain) Reverb() *reverb.Manager { return c.reverb }
