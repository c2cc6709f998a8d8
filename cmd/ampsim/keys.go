package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cwbudde/algo-amp/amp"
	"github.com/cwbudde/algo-amp/dsp/effects/reverb"
	"github.com/cwbudde/algo-amp/dsp/param"
)

const (
	keyCtrlC = 3
	keyEsc   = 27
	floatInc = 0.05
	gainInc  = 1.0
)

// floatKey nudges a float parameter by step.
type floatKey struct {
	id   string
	step float64
}

var floatKeys = map[byte]floatKey{
	'q': {amp.ParamDrive, floatInc},
	'a': {amp.ParamDrive, -floatInc},
	'w': {amp.ParamPreamp, floatInc},
	's': {amp.ParamPreamp, -floatInc},
	'e': {amp.ParamBass, floatInc},
	'd': {amp.ParamBass, -floatInc},
	'r': {amp.ParamMid, floatInc},
	'f': {amp.ParamMid, -floatInc},
	't': {amp.ParamTreble, floatInc},
	'g': {amp.ParamTreble, -floatInc},
	'y': {amp.ParamReverbMix, floatInc},
	'h': {amp.ParamReverbMix, -floatInc},
	'u': {reverb.ParamDecay, floatInc},
	'j': {reverb.ParamDecay, -floatInc},
	'i': {reverb.ParamSize, floatInc},
	'k': {reverb.ParamSize, -floatInc},
	'o': {amp.ParamCompAmount, floatInc},
	'l': {amp.ParamCompAmount, -floatInc},
	'+': {amp.ParamOutputGain, gainInc},
	'-': {amp.ParamOutputGain, -gainInc},
}

// cycleKeys step through a choice parameter.
var cycleKeys = map[byte]string{
	'c': amp.ParamCabType,
	'v': reverb.ParamType,
	'b': amp.ParamBypass,
}

const helpText = `keys:
  1-6  pluck string        space  strum
  q/a  drive               w/s    preamp
  e/d  bass                r/f    mid
  t/g  treble              y/h    reverb mix
  u/j  reverb decay        i/k    reverb size
  o/l  compressor          +/-    output gain
  c    cabinet type        v      reverb type
  b    bypass              ?      help
  x    quit
`

// controller maps key presses to parameter writes and string plucks.
type controller struct {
	reg    *param.Registry
	engine *engine
	out    io.Writer
	log    *slog.Logger
}

// handle applies key and reports whether the session should end.
func (c *controller) handle(key byte) (quit bool) {
	switch {
	case key == 'x' || key == keyCtrlC || key == keyEsc:
		return true
	case key == '?':
		fmt.Fprint(c.out, helpText)
	case key == ' ':
		c.engine.Strum()
	case key >= '1' && key <= '6':
		c.engine.Pluck(int(key - '1'))
	default:
		if fk, ok := floatKeys[key]; ok {
			c.nudge(fk)
		} else if id, ok := cycleKeys[key]; ok {
			c.cycle(id)
		}
	}

	return false
}

func (c *controller) nudge(fk floatKey) {
	p := c.reg.FloatParam(fk.id)
	if p == nil {
		c.log.Debug("parameter not available for this amp", "id", fk.id)
		return
	}

	p.Set(p.Load() + fk.step)
	c.log.Info("set", "id", fk.id, "value", fmt.Sprintf("%.2f", p.Load()))
}

func (c *controller) cycle(id string) {
	p := c.reg.ChoiceParam(id)
	if p == nil {
		c.log.Debug("parameter not available for this amp", "id", id)
		return
	}

	p.Set((p.Load() + 1) % len(p.Options))
	c.log.Info("set", "id", id, "value", p.Name())
}
