// Package amp composes the amplifier stages into complete Guitar, Bass and
// Channel signal chains.
//
// A Processor is the single entry point a host drives: it polls parameters
// from a param.Source once per block, runs the chain, applies the smoothed
// output gain and publishes lock-free meters. Block order is
//
//	compressor → preamp filters → (guitar: diode clipper) → triode stages →
//	tone stack or EQ → power stage → cabinet → enhancer → reverb → output gain
//
// The Channel chain has no clipper, power stage or cabinet and uses a
// three-band biquad EQ in place of the passive tone stack.
package amp
