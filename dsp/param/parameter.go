package param

import (
	"math"
	"sync/atomic"
)

// Source is the read-only view of a parameter registry that processors hold.
// Implementations must be safe to call from the audio thread: no locks, no
// allocation. Unknown ids return 0.
type Source interface {
	Float(id string) float64
	Choice(id string) int
}

// Float is a continuous parameter with a plain-value range.
type Float struct {
	ID      string
	Min     float64
	Max     float64
	Default float64

	bits atomic.Uint64
}

// NewFloat returns a parameter initialized to its default value.
func NewFloat(id string, minValue, maxValue, def float64) *Float {
	p := &Float{ID: id, Min: minValue, Max: maxValue, Default: def}
	p.Set(def)

	return p
}

// Load returns the current plain value.
func (p *Float) Load() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Set stores v clamped to [Min, Max]. NaN is ignored.
func (p *Float) Set(v float64) {
	if math.IsNaN(v) {
		return
	}

	if v < p.Min {
		v = p.Min
	} else if v > p.Max {
		v = p.Max
	}

	p.bits.Store(math.Float64bits(v))
}

// Normalized returns the value mapped to [0,1].
func (p *Float) Normalized() float64 {
	if p.Max <= p.Min {
		return 0
	}

	return (p.Load() - p.Min) / (p.Max - p.Min)
}

// SetNormalized stores a value given in [0,1].
func (p *Float) SetNormalized(n float64) {
	p.Set(p.Min + n*(p.Max-p.Min))
}

// Choice is an enumerated parameter holding an index into Options.
type Choice struct {
	ID      string
	Options []string
	Default int

	index atomic.Int32
}

// NewChoice returns a choice parameter set to def.
func NewChoice(id string, options []string, def int) *Choice {
	c := &Choice{ID: id, Options: options, Default: def}
	c.Set(def)

	return c
}

// Load returns the selected index.
func (c *Choice) Load() int {
	return int(c.index.Load())
}

// Set stores idx clamped to the option range.
func (c *Choice) Set(idx int) {
	if idx < 0 {
		idx = 0
	}

	if n := len(c.Options); n > 0 && idx >= n {
		idx = n - 1
	}

	c.index.Store(int32(idx))
}

// Name returns the label of the selected option.
func (c *Choice) Name() string {
	idx := c.Load()
	if idx < len(c.Options) {
		return c.Options[idx]
	}

	return ""
}
