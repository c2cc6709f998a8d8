// Package dynamics provides the optical compressor used at the head of the
// amp chains.
//
// Opto models a light-dependent resistor: attack speeds up as the level
// rises and release stays slow. The detector runs in the log domain
// against a fixed threshold, and Profile selects how the single amount
// control maps onto that threshold and the compression depth for guitar, bass
// and channel strips.
package dynamics
