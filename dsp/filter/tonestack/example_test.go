package tonestack_test

import (
	"fmt"

	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/filter/tonestack"
)

func ExampleToneStack_Response() {
	ts, _ := tonestack.New(tonestack.Bassman)
	_ = ts.Prepare(core.NewProcessSpec(core.WithSampleRate(48000)))

	fmt.Printf("flat gain @ 1 kHz: %.3f\n", ts.Response(1000))
	// Output:
	// flat gain @ 1 kHz: 1.000
}
