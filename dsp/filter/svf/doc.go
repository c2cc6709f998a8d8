// Package svf implements a multi-channel topology-preserving-transform (TPT)
// state-variable filter after Andrew Simper's trapezoidal SVF.
//
// The filter stays stable under per-sample cutoff modulation, which makes it
// the choice for sidechains and feedback-loop damping where cutoffs move.
package svf
