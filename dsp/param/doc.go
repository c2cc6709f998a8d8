// Package param provides the parameter plumbing between a control thread and
// the audio thread.
//
// Processors depend only on the read-only [Source] capability. [Registry] is
// the in-memory implementation: values are stored as atomic bits so that the
// audio thread can poll them once per block without locks or allocation.
// [Smoothed] ramps a polled value towards its target sample by sample.
package param
