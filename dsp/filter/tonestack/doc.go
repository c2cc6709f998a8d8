// Package tonestack models the passive three-knob tone stack found in
// Fender-style amplifiers.
//
// The circuit's continuous-time transfer function (Yeh and Smith) is a third
// order rational function of the component values and the bass, mid and
// treble pot positions. It is discretized with the bilinear transform into
// four feedforward and four feedback coefficients and run in direct form I.
//
// Every control change recomputes the full coefficient set. A fixed makeup
// gain, chosen at Prepare, makes the response 0 dB at 1 kHz with all three
// controls at 0.5.
package tonestack
