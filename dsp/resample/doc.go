// Package resample provides power-of-two decimation and interpolation with
// polyphase IIR halfband filters.
//
// A [Halfband] is two parallel chains of second-order allpass sections whose
// averaged outputs form a steep low-pass at a quarter of the running rate.
// A [Resampler] cascades halfbands to run a processing core at 1/2 or 1/4
// of the host rate. Ratio 1 bypasses filtering and is bit-exact.
//
// Down and Up share a per-channel sample phase: the decimated samples Down
// emits for a block are exactly the samples Up expects back for that block,
// whatever the block length.
package resample
