package resample

import (
	"errors"
	"fmt"
)

// ErrInvalidRatio indicates a ratio other than 1, 2 or 4.
var ErrInvalidRatio = errors.New("resample: invalid ratio")

// ValidRatio reports whether ratio is a supported downsampling factor.
func ValidRatio(ratio int) bool {
	return ratio == 1 || ratio == 2 || ratio == 4
}

// Stages returns how many halfband stages a ratio needs.
func Stages(ratio int) int {
	switch ratio {
	case 2:
		return 1
	case 4:
		return 2
	default:
		return 0
	}
}

type channelState struct {
	down  []Halfband
	up    []Halfband
	phase int
}

// Resampler decimates and re-interpolates multi-channel audio by 1, 2 or 4.
type Resampler struct {
	ratio    int
	channels []channelState
}

// New returns a resampler for numChannels channels.
func New(ratio, numChannels int) (*Resampler, error) {
	if !ValidRatio(ratio) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRatio, ratio)
	}

	if numChannels <= 0 {
		return nil, fmt.Errorf("resample channel count must be > 0: %d", numChannels)
	}

	r := &Resampler{
		ratio:    ratio,
		channels: make([]channelState, numChannels),
	}

	stages := Stages(ratio)
	for ch := range r.channels {
		r.channels[ch].down = make([]Halfband, stages)
		r.channels[ch].up = make([]Halfband, stages)
	}

	r.Reset()

	return r, nil
}

// Ratio returns the decimation factor.
func (r *Resampler) Ratio() int {
	return r.ratio
}

// NumChannels returns the channel count.
func (r *Resampler) NumChannels() int {
	return len(r.channels)
}

// DownLen returns how many samples Down will emit for a block of n samples
// on channel ch given its current phase.
func (r *Resampler) DownLen(ch, n int) int {
	if r.ratio == 1 {
		return n
	}

	phase := r.channels[ch].phase
	count := 0

	for i := range n {
		if (phase+i)%r.ratio == 0 {
			count++
		}
	}

	return count
}

// Down low-pass filters src and writes every ratio-th sample to dst,
// returning the number written. dst must hold DownLen(ch, len(src)) samples.
// It does not advance the channel phase; Up does.
func (r *Resampler) Down(ch int, src, dst []float64) int {
	if r.ratio == 1 {
		return copy(dst, src)
	}

	st := &r.channels[ch]
	written := 0

	for i, x := range src {
		pos := (st.phase + i) % r.ratio

		x = st.down[0].Process(x)
		if len(st.down) > 1 && pos%2 == 0 {
			x = st.down[1].Process(x)
		}

		if pos == 0 {
			dst[written] = x
			written++
		}
	}

	return written
}

// Up interpolates src back to len(dst) samples using the phase Down used
// for the same block, then advances the channel phase by len(dst).
func (r *Resampler) Up(ch int, src, dst []float64) {
	if r.ratio == 1 {
		copy(dst, src)
		return
	}

	st := &r.channels[ch]
	read := 0

	for i := range dst {
		pos := (st.phase + i) % r.ratio

		var x float64
		if pos == 0 && read < len(src) {
			x = src[read] * float64(r.ratio)
			read++
		}

		// The half-rate stage runs on even positions only.
		if len(st.up) > 1 {
			if pos%2 == 0 {
				x = st.up[1].Process(x)
			} else {
				x = 0
			}
		}

		dst[i] = st.up[0].Process(x)
	}

	st.phase = (st.phase + len(dst)) % r.ratio
}

// Reset clears all filter state and phases.
func (r *Resampler) Reset() {
	for ch := range r.channels {
		st := &r.channels[ch]
		st.phase = 0

		for i := range st.down {
			st.down[i].Reset()
			st.up[i].Reset()
		}
	}
}
