package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/interp"
)

// Option configures a Line.
type Option func(*Line)

// WithMode selects the fractional-delay interpolation.
func WithMode(mode interp.Mode) Option {
	return func(d *Line) {
		d.mode = mode
	}
}

// Line is a multi-channel circular delay line.
type Line struct {
	buffers  [][]float64
	writePos []int
	thiran   []interp.ThiranState
	mode     interp.Mode
	maxDelay int
	delay    float64
}

// New returns a delay line with numChannels channels holding up to
// maxDelay samples of history. The default interpolation is Hermite.
func New(numChannels, maxDelay int, opts ...Option) (*Line, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("delay channel count must be > 0: %d", numChannels)
	}

	if maxDelay <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", maxDelay)
	}

	d := &Line{mode: interp.Hermite, delay: 1}
	for _, opt := range opts {
		opt(d)
	}

	d.allocate(numChannels, maxDelay)

	return d, nil
}

// Prepare reallocates the line for a new channel count and maximum delay.
// On error the previous allocation is kept.
func (d *Line) Prepare(numChannels, maxDelay int) error {
	if numChannels <= 0 {
		return fmt.Errorf("delay channel count must be > 0: %d", numChannels)
	}

	if maxDelay <= 0 {
		return fmt.Errorf("delay size must be > 0: %d", maxDelay)
	}

	d.allocate(numChannels, maxDelay)
	d.SetDelay(d.delay)

	return nil
}

func (d *Line) allocate(numChannels, maxDelay int) {
	// Hermite reads two samples past the integer delay.
	size := maxDelay + 3

	d.buffers = make([][]float64, numChannels)
	for ch := range d.buffers {
		d.buffers[ch] = make([]float64, size)
	}

	d.writePos = make([]int, numChannels)
	d.thiran = make([]interp.ThiranState, numChannels)
	d.maxDelay = maxDelay
}

// NumChannels returns the channel count.
func (d *Line) NumChannels() int {
	return len(d.buffers)
}

// MaxDelay returns the largest delay in samples a read may request.
func (d *Line) MaxDelay() int {
	return d.maxDelay
}

// Mode returns the interpolation mode.
func (d *Line) Mode() interp.Mode {
	return d.mode
}

// SetDelay sets the delay used by Pop, clamped to [1, MaxDelay].
func (d *Line) SetDelay(samples float64) {
	d.delay = d.clampDelay(samples)
}

// Delay returns the current delay in samples.
func (d *Line) Delay() float64 {
	return d.delay
}

// Push writes one sample into channel ch.
func (d *Line) Push(ch int, sample float64) {
	buf := d.buffers[ch]
	pos := d.writePos[ch]
	buf[pos] = sample

	pos++
	if pos >= len(buf) {
		pos = 0
	}

	d.writePos[ch] = pos
}

// Pop reads channel ch at the current delay.
func (d *Line) Pop(ch int) float64 {
	return d.read(ch, d.delay)
}

// PopAt reads channel ch at an explicit delay, clamped to [1, MaxDelay].
func (d *Line) PopAt(ch int, samples float64) float64 {
	return d.read(ch, d.clampDelay(samples))
}

// Read returns the sample pushed k writes ago on channel ch, k >= 1.
func (d *Line) Read(ch, k int) float64 {
	buf := d.buffers[ch]
	size := len(buf)

	idx := (d.writePos[ch] - k) % size
	if idx < 0 {
		idx += size
	}

	return buf[idx]
}

func (d *Line) read(ch int, delay float64) float64 {
	p := int(math.Floor(delay))
	t := delay - float64(p)

	switch d.mode {
	case interp.Linear:
		return interp.Linear2(t, d.Read(ch, p), d.Read(ch, p+1))
	case interp.Thiran:
		// Keep the allpass coefficient away from -1.
		if t < 0.618 && p >= 2 {
			p--
			t++
		}

		return d.thiran[ch].Tick(t, d.Read(ch, p), d.Read(ch, p+1))
	case interp.Hermite:
		return interp.Hermite4(t, d.Read(ch, max(1, p-1)), d.Read(ch, p), d.Read(ch, p+1), d.Read(ch, p+2))
	default:
		return d.Read(ch, p)
	}
}

func (d *Line) clampDelay(samples float64) float64 {
	if math.IsNaN(samples) || samples < 1 {
		return 1
	}

	if samples > float64(d.maxDelay) {
		return float64(d.maxDelay)
	}

	return samples
}

// Reset clears line state on all channels.
func (d *Line) Reset() {
	for ch, buf := range d.buffers {
		clear(buf)
		d.writePos[ch] = 0
		d.thiran[ch].Reset()
	}
}
