package dynamics_test

import (
	"fmt"

	"github.com/cwbudde/algo-amp/dsp/effects/dynamics"
)

func ExampleNewOpto() {
	o, err := dynamics.NewOpto(dynamics.ProfileChannel, dynamics.WithLinked(true))
	if err != nil {
		fmt.Println(err)
		return
	}

	o.SetAmount(0.5)
	fmt.Println(o.Profile(), o.Amount(), o.Linked())
	// Output: channel 0.5 true
}
