// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. A [Filter] shares one
// coefficient set across the channels of an audio block, keeping
// per-channel state, and retunes without clearing that state.
//
// Block processing dispatches to the fastest kernel registered for the
// running CPU. Coefficient design lives in dsp/filter/design.
package biquad
