// Package tube provides vacuum-tube stage models for amp chains.
//
// [Triode] blends a tanh-shaped and an atan-shaped asymmetric transfer
// curve. The blend follows a high-passed copy of the stage's own output,
// which gives a signal-dependent bias shift ("sag"). Gains set between
// blocks are ramped linearly across the next block.
//
// [Pentode] models a push-pull power stage: the input envelope shifts the
// grid bias before a saturation curve chosen at construction time through
// the [Curve] type parameter ([Classic] or [Nu]).
//
// Building with the fastmath tag swaps the exponentials for algo-approx
// approximations.
package tube
