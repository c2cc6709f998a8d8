package design

import (
	"math"

	"github.com/cwbudde/algo-amp/dsp/filter/biquad"
)

// ButterworthQ is the quality factor of a second-order Butterworth section.
const ButterworthQ = 1 / math.Sqrt2

// warp holds the cookbook intermediates for one design frequency.
type warp struct {
	cos, alpha float64
}

func newWarp(freq, q, sampleRate float64) (warp, bool) {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return warp{}, false
	}

	q = normalizedQ(q)
	sw := math.Sin(w0)

	return warp{cos: math.Cos(w0), alpha: sw / (2 * q)}, true
}

// Lowpass designs a lowpass biquad at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	w, ok := newWarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b1 := 1 - w.cos

	return normalizeBiquad(b1/2, b1, b1/2, 1+w.alpha, -2*w.cos, 1-w.alpha)
}

// Highpass designs a highpass biquad at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	w, ok := newWarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b1 := 1 + w.cos

	return normalizeBiquad(b1/2, -b1, b1/2, 1+w.alpha, -2*w.cos, 1-w.alpha)
}

// Bandpass designs a constant 0 dB peak gain bandpass biquad.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	w, ok := newWarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	return normalizeBiquad(w.alpha, 0, -w.alpha, 1+w.alpha, -2*w.cos, 1-w.alpha)
}

// Peak designs a peaking-EQ biquad with gain in dB.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w, ok := newWarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)

	return normalizeBiquad(
		1+w.alpha*a, -2*w.cos, 1-w.alpha*a,
		1+w.alpha/a, -2*w.cos, 1-w.alpha/a,
	)
}

// LowShelf designs a low-shelf biquad with gain in dB.
func LowShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w, ok := newWarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * w.alpha
	ap, am := a+1, a-1

	return normalizeBiquad(
		a*(ap-am*w.cos+beta), 2*a*(am-ap*w.cos), a*(ap-am*w.cos-beta),
		ap+am*w.cos+beta, -2*(am+ap*w.cos), ap+am*w.cos-beta,
	)
}

// HighShelf designs a high-shelf biquad with gain in dB.
func HighShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w, ok := newWarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * w.alpha
	ap, am := a+1, a-1

	return normalizeBiquad(
		a*(ap+am*w.cos+beta), -2*a*(am+ap*w.cos), a*(ap+am*w.cos-beta),
		ap-am*w.cos+beta, 2*(am-ap*w.cos), ap-am*w.cos-beta,
	)
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	if freq <= 0 || freq >= sampleRate/2 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return ButterworthQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
