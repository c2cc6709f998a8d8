// Package level measures K-weighted loudness and sample peaks of amp
// output. Meter follows ITU-R BS.1770: momentary (400 ms) and short-term
// (3 s) sliding windows plus gated integrated loudness.
package level
