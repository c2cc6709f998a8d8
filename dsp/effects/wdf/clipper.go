package wdf

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/param"
)

const (
	defaultSourceResistance = 1000.0
	defaultMinDrive         = 220.0
	defaultMaxDrive         = 4700.0
	defaultCapacitance      = 22e-9
	defaultMaxDriveDB       = 24.0
	defaultSmoothingMs      = 50.0

	// primeSamples of silence settle the tree after Prepare and Reset.
	primeSamples = 32
)

// ClipperOption mutates construction-time parameters.
type ClipperOption func(*clipperConfig) error

type clipperConfig struct {
	sourceR     float64
	minDriveR   float64
	maxDriveR   float64
	capacitance float64
	maxDriveDB  float64
	smoothingMs float64
	is, vt      float64
	nDiodes     int
}

func defaultClipperConfig() clipperConfig {
	return clipperConfig{
		sourceR:     defaultSourceResistance,
		minDriveR:   defaultMinDrive,
		maxDriveR:   defaultMaxDrive,
		capacitance: defaultCapacitance,
		maxDriveDB:  defaultMaxDriveDB,
		smoothingMs: defaultSmoothingMs,
		is:          DefaultSaturationCurrent,
		vt:          DefaultThermalVoltage,
		nDiodes:     1,
	}
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WithDriveRange sets the drive resistor range in ohms swept by distortion 0..1.
func WithDriveRange(minOhms, maxOhms float64) ClipperOption {
	return func(cfg *clipperConfig) error {
		if !positiveFinite(minOhms) || !positiveFinite(maxOhms) || maxOhms < minOhms {
			return fmt.Errorf("clipper drive range must satisfy 0 < min <= max: [%f, %f]", minOhms, maxOhms)
		}

		cfg.minDriveR, cfg.maxDriveR = minOhms, maxOhms

		return nil
	}
}

// WithCapacitance sets the shunt capacitor in farads.
func WithCapacitance(farads float64) ClipperOption {
	return func(cfg *clipperConfig) error {
		if !positiveFinite(farads) {
			return fmt.Errorf("clipper capacitance must be > 0: %g", farads)
		}

		cfg.capacitance = farads

		return nil
	}
}

// WithInputGainDB sets the input gain in dB reached at distortion 1.
func WithInputGainDB(db float64) ClipperOption {
	return func(cfg *clipperConfig) error {
		if db < 0 || db > 60 || math.IsNaN(db) {
			return fmt.Errorf("clipper input gain must be in [0, 60] dB: %f", db)
		}

		cfg.maxDriveDB = db

		return nil
	}
}

// WithDiodes sets the diode model and the number of diodes per branch.
func WithDiodes(is, vt float64, n int) ClipperOption {
	return func(cfg *clipperConfig) error {
		if _, err := NewDiodePair(is, vt, n); err != nil {
			return err
		}

		cfg.is, cfg.vt, cfg.nDiodes = is, vt, n

		return nil
	}
}

// WithSmoothingMs sets the distortion ramp time.
func WithSmoothingMs(ms float64) ClipperOption {
	return func(cfg *clipperConfig) error {
		if ms < 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return fmt.Errorf("clipper smoothing time must be >= 0: %f", ms)
		}

		cfg.smoothingMs = ms

		return nil
	}
}

type clipperTree struct {
	source   *ResistiveSource
	drive    *Resistor
	cap      *Capacitor
	series   *Series
	parallel *Parallel
	diodes   *DiodePair
}

func newClipperTree(cfg clipperConfig, sampleRate, driveR float64) (clipperTree, error) {
	source, err := NewResistiveSource(cfg.sourceR)
	if err != nil {
		return clipperTree{}, err
	}

	drive, err := NewResistor(driveR)
	if err != nil {
		return clipperTree{}, err
	}

	c, err := NewCapacitor(cfg.capacitance, sampleRate)
	if err != nil {
		return clipperTree{}, err
	}

	diodes, err := NewDiodePair(cfg.is, cfg.vt, cfg.nDiodes)
	if err != nil {
		return clipperTree{}, err
	}

	series := NewSeries(source, drive)
	tree := clipperTree{
		source:   source,
		drive:    drive,
		cap:      c,
		series:   series,
		parallel: NewParallel(series, c),
		diodes:   diodes,
	}
	tree.diodes.SetImpedance(tree.parallel.Impedance())

	return tree, nil
}

func (t *clipperTree) setDrive(ohms float64) {
	t.drive.SetResistance(ohms)
	t.series.Propagate()
	t.parallel.Propagate()
	t.diodes.SetImpedance(t.parallel.Impedance())
}

func (t *clipperTree) tick(x float64) float64 {
	// The series adaptor reflects the loop voltage with inverted sign.
	t.source.SetVoltage(-x)

	a := t.parallel.Reflected()
	b := t.diodes.Reflect(a)
	t.parallel.Incident(b)

	return 0.5 * (a + b)
}

// Clipper is the diode-clipper drive circuit. The output is the voltage
// across the diode pair.
type Clipper struct {
	cfg clipperConfig

	distortion *param.Smoothed
	trees      []clipperTree
	driveR     []float64
	inGain     []float64
	dry        [][]float64

	// treeDrive is the drive resistance the trees hold outside a ramp.
	treeDrive float64

	fadeIn   bool
	prepared bool
}

// NewClipper returns a clipper at distortion 0. Call Prepare before
// processing; an unprepared clipper passes audio through.
func NewClipper(opts ...ClipperOption) (*Clipper, error) {
	cfg := defaultClipperConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Clipper{
		cfg:        cfg,
		distortion: param.NewSmoothed(param.RampLinear, 0),
	}, nil
}

// Prepare builds one tree per channel and primes it with silence. The next
// processed block fades in from the dry input.
func (c *Clipper) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	d := c.distortion.Target()
	driveR := c.driveFor(d)

	trees := make([]clipperTree, spec.NumChannels)
	for ch := range trees {
		tree, err := newClipperTree(c.cfg, spec.SampleRate, driveR)
		if err != nil {
			return err
		}

		trees[ch] = tree
	}

	block := int(spec.MaximumBlockSize)

	c.trees = trees
	c.driveR = make([]float64, block)
	c.inGain = make([]float64, block)
	c.dry = make([][]float64, spec.NumChannels)
	for ch := range c.dry {
		c.dry[ch] = make([]float64, block)
	}

	c.distortion.Reset(spec.SampleRate, c.cfg.smoothingMs)
	c.distortion.SetCurrentAndTarget(d)
	c.prepared = true
	c.prime()

	return nil
}

// SetDistortion sets the distortion amount in [0, 1]. The drive resistor
// and input gain follow a linear ramp.
func (c *Clipper) SetDistortion(amount float64) {
	if math.IsNaN(amount) {
		return
	}

	c.distortion.SetTarget(core.Clamp(amount, 0, 1))
}

// Distortion returns the target distortion amount.
func (c *Clipper) Distortion() float64 {
	return c.distortion.Target()
}

func (c *Clipper) driveFor(d float64) float64 {
	return c.cfg.minDriveR + d*(c.cfg.maxDriveR-c.cfg.minDriveR)
}

func (c *Clipper) gainFor(d float64) float64 {
	return core.DBToLinear(d * c.cfg.maxDriveDB)
}

// Process runs the circuit over buf in place.
func (c *Clipper) Process(buf *buffer.Audio) {
	if !c.prepared {
		return
	}

	n := min(buf.NumSamples(), len(c.driveR))
	channels := min(buf.NumChannels(), len(c.trees))

	if n == 0 || channels == 0 {
		return
	}

	if c.fadeIn {
		for ch := range channels {
			copy(c.dry[ch][:n], buf.Channel(ch)[:n])
		}
	}

	smoothing := c.distortion.IsSmoothing()
	if smoothing {
		for i := range n {
			d := c.distortion.Next()
			c.driveR[i] = c.driveFor(d)
			c.inGain[i] = c.gainFor(d)
		}
	}

	gain := c.gainFor(c.distortion.Current())
	if !smoothing {
		c.retune(c.driveFor(c.distortion.Current()))
	}

	for ch := range channels {
		tree := &c.trees[ch]
		data := buf.Channel(ch)[:n]

		for i, x := range data {
			g := gain
			if smoothing {
				tree.setDrive(c.driveR[i])
				g = c.inGain[i]
			}

			data[i] = tree.tick(g * x)
		}
	}

	if smoothing {
		c.treeDrive = c.driveR[n-1]
	}

	if c.fadeIn {
		inv := 1 / float64(n)
		for ch := range channels {
			data := buf.Channel(ch)[:n]
			dry := c.dry[ch][:n]

			for i := range data {
				t := float64(i+1) * inv
				data[i] = core.Lerp(dry[i], data[i], t)
			}
		}

		c.fadeIn = false
	}
}

// Reset discharges the circuit, snaps the distortion ramp to its target and
// primes the trees again.
func (c *Clipper) Reset() {
	if !c.prepared {
		return
	}

	c.distortion.SetCurrentAndTarget(c.distortion.Target())
	c.prime()
}

func (c *Clipper) retune(driveR float64) {
	if driveR == c.treeDrive {
		return
	}

	for ch := range c.trees {
		c.trees[ch].setDrive(driveR)
	}

	c.treeDrive = driveR
}

func (c *Clipper) prime() {
	c.treeDrive = 0
	c.retune(c.driveFor(c.distortion.Current()))

	for ch := range c.trees {
		tree := &c.trees[ch]
		tree.cap.Reset()

		for range primeSamples {
			tree.tick(0)
		}
	}

	c.fadeIn = true
}
