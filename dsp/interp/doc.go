// Package interp provides interpolation primitives used by delay-based DSP blocks.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:  2-point linear interpolation
//   - [Thiran]:   first-order allpass (unity magnitude, phase-only, stateful)
//   - [Hermite4]: 4-point cubic Hermite (good default for modulated reads)
//
// The [Mode] enum lets delay lines select the algorithm at construction time.
package interp
