// Package delay provides a multi-channel circular delay line with a fixed
// maximum delay and selectable fractional-delay interpolation.
//
// The per-sample contract is read before write: call [Line.Pop] (or
// [Line.PopAt]) for a channel, then [Line.Push] the new input. Delays are
// therefore at least one sample and are clamped to the configured maximum.
package delay
