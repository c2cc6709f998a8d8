package buffer

import (
	"errors"

	"github.com/cwbudde/algo-vecmath"
)

// ErrChannelMismatch is returned when two blocks with different channel counts
// are combined.
var ErrChannelMismatch = errors.New("buffer channel count mismatch")

// Audio is a deinterleaved block of samples. Each channel is a view into one
// contiguous backing slice.
type Audio struct {
	data       []float64
	channels   [][]float64
	numSamples int
	maxSamples int
}

// New returns a zero-filled block with numChannels channels and room for
// maxSamples samples per channel. The visible length starts at maxSamples.
func New(numChannels, maxSamples int) *Audio {
	a := &Audio{}
	a.Resize(numChannels, maxSamples)

	return a
}

// FromSlices wraps existing channel slices without copying. All slices must
// have the same length; the shortest one wins otherwise.
func FromSlices(channels ...[]float64) *Audio {
	n := 0
	for i, ch := range channels {
		if i == 0 || len(ch) < n {
			n = len(ch)
		}
	}

	views := make([][]float64, len(channels))
	for i, ch := range channels {
		views[i] = ch[:n:n]
	}

	return &Audio{channels: views, numSamples: n, maxSamples: n}
}

// Resize reallocates the block. Existing content is discarded.
// It allocates and must not be called on the audio thread.
func (a *Audio) Resize(numChannels, maxSamples int) {
	if numChannels < 0 {
		numChannels = 0
	}

	if maxSamples < 0 {
		maxSamples = 0
	}

	a.data = make([]float64, numChannels*maxSamples)
	a.channels = make([][]float64, numChannels)
	for ch := range a.channels {
		off := ch * maxSamples
		a.channels[ch] = a.data[off : off+maxSamples : off+maxSamples]
	}

	a.maxSamples = maxSamples
	a.numSamples = maxSamples
}

// SetView points a at samples [offset, offset+n) of src's visible block
// without copying. The range is clamped to src. The channel table of a is
// reused, so repeated views over the same channel count do not allocate.
func (a *Audio) SetView(src *Audio, offset, n int) {
	offset = max(0, min(offset, src.numSamples))
	n = max(0, min(n, src.numSamples-offset))

	if cap(a.channels) < len(src.channels) {
		a.channels = make([][]float64, len(src.channels))
	}

	a.channels = a.channels[:len(src.channels)]
	for ch, s := range src.channels {
		a.channels[ch] = s[offset : offset+n : offset+n]
	}

	a.data = nil
	a.numSamples = n
	a.maxSamples = n
}

// NumChannels returns the channel count.
func (a *Audio) NumChannels() int { return len(a.channels) }

// NumSamples returns the visible sample count per channel.
func (a *Audio) NumSamples() int { return a.numSamples }

// MaxSamples returns the allocated sample count per channel.
func (a *Audio) MaxSamples() int { return a.maxSamples }

// SetNumSamples changes the visible length, clamped to [0, MaxSamples].
func (a *Audio) SetNumSamples(n int) {
	if n < 0 {
		n = 0
	}

	if n > a.maxSamples {
		n = a.maxSamples
	}

	a.numSamples = n
}

// Channel returns the visible samples of channel ch. Out-of-range channels
// return nil.
func (a *Audio) Channel(ch int) []float64 {
	if ch < 0 || ch >= len(a.channels) {
		return nil
	}

	return a.channels[ch][:a.numSamples]
}

// Clear zeroes the visible samples of every channel.
func (a *Audio) Clear() {
	for ch := range a.channels {
		clear(a.channels[ch][:a.numSamples])
	}
}

// CopyFrom copies src into a and adopts its visible length. Channel counts
// must match.
func (a *Audio) CopyFrom(src *Audio) error {
	if src.NumChannels() != a.NumChannels() {
		return ErrChannelMismatch
	}

	a.SetNumSamples(src.numSamples)
	for ch := range a.channels {
		copy(a.channels[ch][:a.numSamples], src.channels[ch][:a.numSamples])
	}

	return nil
}

// AddFrom adds src into a sample by sample over the visible length of a.
func (a *Audio) AddFrom(src *Audio) error {
	if src.NumChannels() != a.NumChannels() {
		return ErrChannelMismatch
	}

	n := min(a.numSamples, src.numSamples)
	for ch := range a.channels {
		vecmath.AddBlockInPlace(a.channels[ch][:n], src.channels[ch][:n])
	}

	return nil
}

// ApplyGain scales every visible sample by gain.
func (a *Audio) ApplyGain(gain float64) {
	if gain == 1 {
		return
	}

	for ch := range a.channels {
		s := a.channels[ch][:a.numSamples]
		vecmath.ScaleBlock(s, s, gain)
	}
}

// ApplyGainRamp scales channel ch with a gain moving linearly from start
// towards end across the visible block.
func (a *Audio) ApplyGainRamp(ch int, start, end float64) {
	s := a.Channel(ch)
	if len(s) == 0 {
		return
	}

	if start == end {
		vecmath.ScaleBlock(s, s, start)
		return
	}

	step := (end - start) / float64(len(s))
	g := start
	for i := range s {
		s[i] *= g
		g += step
	}
}

// MultiplyBy multiplies channel ch element-wise with env. Extra samples on
// either side are ignored.
func (a *Audio) MultiplyBy(ch int, env []float64) {
	s := a.Channel(ch)
	n := min(len(s), len(env))
	vecmath.MulBlockInPlace(s[:n], env[:n])
}

// Peak returns the largest absolute visible sample of channel ch.
func (a *Audio) Peak(ch int) float64 {
	peak := 0.0
	for _, v := range a.Channel(ch) {
		if v < 0 {
			v = -v
		}

		if v > peak {
			peak = v
		}
	}

	return peak
}

// Deinterleave loads interleaved float32 frames into the block. The visible
// length becomes len(src)/NumChannels, clamped to MaxSamples.
func (a *Audio) Deinterleave(src []float32) {
	nch := len(a.channels)
	if nch == 0 {
		a.numSamples = 0
		return
	}

	a.SetNumSamples(len(src) / nch)
	for i := range a.numSamples {
		frame := src[i*nch : i*nch+nch]
		for ch := range nch {
			a.channels[ch][i] = float64(frame[ch])
		}
	}
}

// Interleave writes the visible block into dst as interleaved float32 frames
// and returns the number of values written.
func (a *Audio) Interleave(dst []float32) int {
	nch := len(a.channels)
	if nch == 0 {
		return 0
	}

	n := min(a.numSamples, len(dst)/nch)
	for i := range n {
		for ch := range nch {
			dst[i*nch+ch] = float32(a.channels[ch][i])
		}
	}

	return n * nch
}
