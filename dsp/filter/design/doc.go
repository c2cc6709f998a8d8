// Package design provides digital IIR filter coefficient designers.
//
// The functions in this package produce biquad coefficients consumable by
// dsp/filter/biquad for runtime processing, following the RBJ audio-EQ
// cookbook. Invalid frequencies (<= 0 or >= Nyquist) yield zero coefficients;
// invalid Q values fall back to Butterworth Q.
package design
