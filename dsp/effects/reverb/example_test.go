package reverb_test

import (
	"fmt"

	"github.com/cwbudde/algo-amp/dsp/effects/reverb"
)

func ExampleParamsFor() {
	p := reverb.ParamsFor(reverb.TypeHall, 0.5, 0.5, 0)
	fmt.Printf("%s: %.2f ms, rt60 %.4f s\n", reverb.TypeHall, p.RoomSizeMs, p.RT60)

	// Output:
	// hall: 112.50 ms, rt60 2.4750 s
}

func ExampleNewRoom() {
	r, err := reverb.NewRoom(reverb.Params{RoomSizeMs: 10, RT60: 4})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(r.Params().RoomSizeMs, r.State())

	// Output:
	// 40 uninitialized
}

func ExampleDecayGain() {
	fmt.Printf("%.4f\n", reverb.DecayGain(40, 0.8))

	// Output:
	// 0.5957
}
