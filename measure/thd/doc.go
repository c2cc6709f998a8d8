// Package thd measures harmonic distortion of a periodic signal, and of a
// block processor driven with a sine. It is used to verify the saturating
// stages and to tabulate their character.
package thd
