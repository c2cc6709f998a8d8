// Package generic registers the portable biquad block kernel.
package generic

import (
	"github.com/cwbudde/algo-amp/dsp/filter/biquad/internal/kernel/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:         "generic",
		SIMDLevel:    cpu.SIMDNone,
		Priority:     0,
		ProcessBlock: processBlock,
	})
}

func processBlock(c registry.Coefficients, d0, d1 float64, buf []float64) (newD0, newD1 float64) {
	for i, x := range buf {
		y := c.B0*x + d0
		d0 = c.B1*x - c.A1*y + d1
		d1 = c.B2*x - c.A2*y
		buf[i] = y
	}

	return d0, d1
}
