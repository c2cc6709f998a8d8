// Package enhancer adds synthesized harmonics to the top or bottom of the
// spectrum.
//
// [HF] saturates a high-passed copy of the signal and adds it back, which
// brightens the cabinet output. [LF] generates even and odd harmonics of the
// low band and adds a band-passed copy, so the fundamental of low notes is
// implied on small speakers.
package enhancer
