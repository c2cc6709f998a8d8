package tube_test

import (
	"fmt"

	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/effects/tube"
)

func ExampleClassic() {
	c := tube.Classic{Lp: 1, Ln: 0.5}
	fmt.Printf("%.3f %.3f\n", c.Shape(1), c.Shape(-1))
	// Output: 0.500 -0.333
}

func ExampleNewPentode() {
	p, err := tube.NewPentode(tube.Classic{Lp: 1.2, Ln: 0.8}, tube.WithDrive(2))
	if err != nil {
		fmt.Println(err)
		return
	}

	if err := p.Prepare(core.DefaultProcessSpec()); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("%.1f\n", p.ProcessSample(0, 0))
	// Output: 0.0
}
