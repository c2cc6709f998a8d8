// Package reverb implements the amp's room reverb.
//
// A [Room] upmixes stereo input to eight channels, runs four cascaded
// [Diffuser] stages that also feed an early-reflection accumulator, and
// builds the late tail with a modulated [MixedFeedback] network. It can run
// at half or quarter rate behind halfband resamplers.
//
// A [Manager] owns two rooms. Pre-delay changes go straight to the active
// room; size, decay and type changes configure the spare room and
// crossfade to it over half a second with equal-power gains. The swap is an
// atomic pointer store. Retired rooms leave the audio thread through a
// [RetireQueue] and come back as spares after [Manager.Drain] has cleared
// them on a control goroutine.
package reverb
