// Package cabinet emulates a guitar or bass speaker cabinet.
//
// A four-tap feedback delay network models cone resonance, a first-order
// all-pass follows the microphone position, and a fixed filter bank per
// cabinet size shapes the overall response. Cabinet type changes are
// published through an atomic and take effect at the next block boundary.
package cabinet
