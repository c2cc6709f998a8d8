// Package buffer provides the deinterleaved multi-channel block that flows
// through the amp and reverb chains.
//
// An [Audio] block is allocated once with a fixed channel count and a maximum
// sample count, typically inside Prepare. Processing code then shortens or
// lengthens the visible block with SetNumSamples, which never allocates.
package buffer
