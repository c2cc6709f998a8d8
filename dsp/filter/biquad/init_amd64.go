//go:build amd64 && !purego

package biquad

import (
	_ "github.com/cwbudde/algo-amp/dsp/filter/biquad/internal/kernel/generic"  // register portable kernel
	_ "github.com/cwbudde/algo-amp/dsp/filter/biquad/internal/kernel/unrolled" // register unrolled kernel
)
