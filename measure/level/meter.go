package level

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/filter/biquad"
	"github.com/cwbudde/algo-amp/dsp/filter/design"
)

const (
	// K-weighting filter from BS.1770.
	kShelfFreq = 1500.0
	kShelfGain = 4.0
	kHPFFreq   = 38.0

	momentarySeconds = 0.4
	shortTermSeconds = 3.0

	absGate   = -70.0
	relGate   = -10.0
	blockStep = 0.25

	// Floor is the loudness reported for silence, in LUFS.
	Floor = -120.0
)

// Meter measures loudness of multi-channel blocks without modifying them.
// An unprepared meter ignores input and reports Floor.
type Meter struct {
	channels int

	shelf *biquad.Filter
	hpf   *biquad.Filter

	mom   window
	short window

	integrating bool
	stepSamples int
	sinceStep   int
	blocks      []float64

	peaks []float64
}

// window is a per-channel sliding sum of squares.
type window struct {
	hist [][]float64
	sums []float64
	pos  int
}

func newWindow(channels, length int) window {
	w := window{hist: make([][]float64, channels), sums: make([]float64, channels)}
	for ch := range w.hist {
		w.hist[ch] = make([]float64, length)
	}

	return w
}

func (w *window) push(ch int, sq float64) {
	h := w.hist[ch]
	w.sums[ch] += sq - h[w.pos]
	if w.sums[ch] < 0 {
		w.sums[ch] = 0
	}

	h[w.pos] = sq
}

func (w *window) advance() {
	if len(w.hist) == 0 {
		return
	}

	w.pos++
	if w.pos >= len(w.hist[0]) {
		w.pos = 0
	}
}

// meanSquare returns the channel-summed mean square of the window.
func (w *window) meanSquare() float64 {
	if len(w.hist) == 0 || len(w.hist[0]) == 0 {
		return 0
	}

	n := float64(len(w.hist[0]))
	total := 0.0
	for _, s := range w.sums {
		total += s / n
	}

	return total
}

func (w *window) reset() {
	for ch := range w.hist {
		clear(w.hist[ch])
		w.sums[ch] = 0
	}

	w.pos = 0
}

// NewMeter returns an unprepared meter.
func NewMeter() *Meter {
	return &Meter{}
}

// Prepare allocates filters and windows for spec and clears all state.
func (m *Meter) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("level meter: %w", err)
	}

	sr := spec.SampleRate
	m.channels = int(spec.NumChannels)
	m.shelf = biquad.NewFilter(m.channels, design.HighShelf(kShelfFreq, kShelfGain, design.ButterworthQ, sr))
	m.hpf = biquad.NewFilter(m.channels, design.Highpass(kHPFFreq, design.ButterworthQ, sr))
	m.mom = newWindow(m.channels, max(1, int(math.Round(momentarySeconds*sr))))
	m.short = newWindow(m.channels, max(1, int(math.Round(shortTermSeconds*sr))))
	m.stepSamples = max(1, int(math.Round(momentarySeconds*blockStep*sr)))
	m.peaks = make([]float64, m.channels)
	m.blocks = m.blocks[:0]
	m.sinceStep = 0

	return nil
}

// StartIntegration begins collecting gating blocks for Integrated.
func (m *Meter) StartIntegration() {
	m.integrating = true
}

// StopIntegration freezes the integrated measurement.
func (m *Meter) StopIntegration() {
	m.integrating = false
}

// Process measures buf. Channels beyond the prepared count are ignored.
func (m *Meter) Process(buf *buffer.Audio) {
	if m.channels == 0 || buf == nil {
		return
	}

	n := buf.NumSamples()
	nch := min(buf.NumChannels(), m.channels)

	for ch := range nch {
		for _, v := range buf.Channel(ch)[:n] {
			if a := math.Abs(v); a > m.peaks[ch] {
				m.peaks[ch] = a
			}
		}
	}

	for i := range n {
		for ch := range nch {
			x := m.hpf.ProcessSample(ch, m.shelf.ProcessSample(ch, buf.Channel(ch)[i]))
			m.mom.push(ch, x*x)
			m.short.push(ch, x*x)
		}

		m.mom.advance()
		m.short.advance()

		if !m.integrating {
			continue
		}

		m.sinceStep++
		if m.sinceStep >= m.stepSamples {
			m.sinceStep = 0
			m.blocks = append(m.blocks, m.mom.meanSquare())
		}
	}
}

// Momentary returns the loudness of the last 400 ms in LUFS.
func (m *Meter) Momentary() float64 {
	return toLUFS(m.mom.meanSquare())
}

// ShortTerm returns the loudness of the last 3 s in LUFS.
func (m *Meter) ShortTerm() float64 {
	return toLUFS(m.short.meanSquare())
}

// Integrated returns the gated loudness since StartIntegration in LUFS.
func (m *Meter) Integrated() float64 {
	var (
		absSum   float64
		absCount int
	)

	for _, b := range m.blocks {
		if toLUFS(b) > absGate {
			absSum += b
			absCount++
		}
	}

	if absCount == 0 {
		return Floor
	}

	gate := toLUFS(absSum/float64(absCount)) + relGate

	var (
		relSum   float64
		relCount int
	)

	for _, b := range m.blocks {
		if l := toLUFS(b); l > absGate && l > gate {
			relSum += b
			relCount++
		}
	}

	if relCount == 0 {
		return Floor
	}

	return toLUFS(relSum / float64(relCount))
}

// Peak returns the largest absolute sample seen on ch since Reset.
func (m *Meter) Peak(ch int) float64 {
	if ch < 0 || ch >= len(m.peaks) {
		return 0
	}

	return m.peaks[ch]
}

// PeakDB returns Peak(ch) in dBFS.
func (m *Meter) PeakDB(ch int) float64 {
	return core.LinearToDB(m.Peak(ch))
}

// Reset clears filters, windows, peaks and gating blocks.
func (m *Meter) Reset() {
	if m.channels == 0 {
		return
	}

	m.shelf.Reset()
	m.hpf.Reset()
	m.mom.reset()
	m.short.reset()
	clear(m.peaks)
	m.blocks = m.blocks[:0]
	m.sinceStep = 0
}

func toLUFS(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return Floor
	}

	return max(Floor, -0.691+10*math.Log10(meanSquare))
}
