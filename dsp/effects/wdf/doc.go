// Package wdf implements wave digital filter elements and the diode-clipper
// drive circuit built from them.
//
// Elements exchange incident (a) and reflected (b) waves through a port
// resistance. A tree is evaluated per sample by pulling reflected waves up
// from the leaves to the root, solving the root nonlinearity, and pushing the
// resulting wave back down with Incident. Adaptors recompute their port
// resistance from their children when Propagate is called.
//
// [Clipper] wires a resistive voltage source in series with a drive
// resistor, both in parallel with a capacitor, under an antiparallel diode
// pair solved in closed form with the Wright omega function.
package wdf
