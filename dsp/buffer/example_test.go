package buffer_test

import (
	"fmt"

	"github.com/cwbudde/algo-amp/dsp/buffer"
)

func ExampleAudio() {
	b := buffer.New(2, 4)
	copy(b.Channel(0), []float64{1, 2, 3, 4})
	copy(b.Channel(1), []float64{-1, -2, -3, -4})

	b.SetNumSamples(3)
	b.ApplyGain(0.5)

	fmt.Println(b.Channel(0), b.Channel(1))
	fmt.Println(b.NumChannels(), b.NumSamples(), b.MaxSamples())

	// Output:
	// [0.5 1 1.5] [-0.5 -1 -1.5]
	// 2 3 4
}
