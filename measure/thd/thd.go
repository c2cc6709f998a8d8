package thd

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultRangeLowerHz = 20.0
	defaultRangeUpperHz = 20000.0
)

// Window selects the analysis window.
type Window int

const (
	WindowHann Window = iota
	WindowBlackmanHarris
	WindowRectangular
)

// captureBins is the half-width of a tone's main lobe in bins.
func (w Window) captureBins() int {
	switch w {
	case WindowBlackmanHarris:
		return 4
	case WindowRectangular:
		return 1
	default:
		return 2
	}
}

// coefficients returns an n-point periodic window.
func (w Window) coefficients(n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		x := 2 * math.Pi * float64(i) / float64(n)

		switch w {
		case WindowBlackmanHarris:
			c[i] = 0.35875 - 0.48829*math.Cos(x) + 0.14128*math.Cos(2*x) - 0.01168*math.Cos(3*x)
		case WindowRectangular:
			c[i] = 1
		default:
			c[i] = 0.5 - 0.5*math.Cos(x)
		}
	}

	return c
}

// Config holds the analysis parameters. Zero fields take defaults.
type Config struct {
	SampleRate      float64
	FFTSize         int
	FundamentalFreq float64 // 0 picks the strongest bin
	RangeLowerFreq  float64
	RangeUpperFreq  float64
	CaptureBins     int // 0 derives it from Window
	MaxHarmonics    int // 0 means up to RangeUpperFreq
	Window          Window
}

// Result holds distortion figures relative to the fundamental.
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	THD              float64
	THDN             float64
	THDdB            float64
	THDNdB           float64
	OddHD            float64
	EvenHD           float64
	Noise            float64
	Harmonics        []float64 // level of harmonic k+2 relative to the fundamental
	SINAD            float64
}

// Calculator performs THD analysis with a fixed FFT size. It owns its FFT
// plan and scratch buffers and is not safe for concurrent use.
type Calculator struct {
	cfg Config

	plan   *algofft.Plan[complex128]
	window []float64
	frame  []float64
	in     []complex128
	out    []complex128
	mag    []float64
}

// NewCalculator returns a calculator for cfg. FFTSize must be a power of two.
func NewCalculator(cfg Config) (*Calculator, error) {
	cfg = normalizeConfig(cfg)

	if cfg.FFTSize < 2 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("thd FFT size must be a power of two >= 2: %d", cfg.FFTSize)
	}

	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) {
		return nil, fmt.Errorf("thd sample rate must be > 0: %f", cfg.SampleRate)
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, err
	}

	return &Calculator{
		cfg:    cfg,
		plan:   plan,
		window: cfg.Window.coefficients(cfg.FFTSize),
		frame:  make([]float64, cfg.FFTSize),
		in:     make([]complex128, cfg.FFTSize),
		out:    make([]complex128, cfg.FFTSize),
		mag:    make([]float64, cfg.FFTSize/2+1),
	}, nil
}

// Config returns the normalized configuration.
func (c *Calculator) Config() Config { return c.cfg }

// AnalyzeSignal is a one-shot analysis of a time-domain signal.
func AnalyzeSignal(signal []float64, cfg Config) (Result, error) {
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = nextPowerOf2(len(signal))
	}

	c, err := NewCalculator(cfg)
	if err != nil {
		return Result{}, err
	}

	return c.AnalyzeSignal(signal), nil
}

// AnalyzeSignal windows the first FFTSize samples of signal (zero padded
// when shorter), transforms them and evaluates the spectrum.
func (c *Calculator) AnalyzeSignal(signal []float64) Result {
	n := min(len(signal), len(c.frame))
	if n == 0 {
		return Result{}
	}

	clear(c.frame)
	vecmath.MulBlock(c.frame[:n], signal[:n], c.window[:n])

	for i, v := range c.frame {
		c.in[i] = complex(v, 0)
	}

	if err := c.plan.Forward(c.out, c.in); err != nil {
		return Result{}
	}

	for i := range c.mag {
		x := c.out[i]
		c.mag[i] = real(x)*real(x) + imag(x)*imag(x)
	}

	return c.CalculateFromMagnitude(c.mag)
}

// CalculateFromMagnitude evaluates a squared-magnitude spectrum holding
// the bins [0, Nyquist].
func (c *Calculator) CalculateFromMagnitude(magSquared []float64) Result {
	if len(magSquared) <= 1 {
		return Result{}
	}

	cfg := c.cfg
	maxBin := len(magSquared) - 1
	binHz := cfg.SampleRate / float64(2*maxBin)

	lowerBin := clampInt(int(math.Round(cfg.RangeLowerFreq/binHz)), 1, maxBin)
	upperBin := clampInt(int(math.Round(cfg.RangeUpperFreq/binHz)), lowerBin, maxBin)

	fundamentalBin := c.fundamentalBin(magSquared, lowerBin, upperBin, binHz)

	capture := cfg.CaptureBins
	if capture <= 0 {
		capture = cfg.Window.captureBins()
	}

	capture = min(capture, fundamentalBin/2)

	fundamental := binSum(magSquared, fundamentalBin, capture)
	res := Result{FundamentalFreq: float64(fundamentalBin) * binHz}

	if fundamental <= 0 {
		return res
	}

	var thdAbs, oddAbs, evenAbs float64

	for k := 2; cfg.MaxHarmonics == 0 || k-1 <= cfg.MaxHarmonics; k++ {
		bin := k * fundamentalBin
		if bin > upperBin {
			break
		}

		v := binSum(magSquared, bin, capture)
		thdAbs += v

		if k%2 == 0 {
			evenAbs += v
		} else {
			oddAbs += v
		}

		res.Harmonics = append(res.Harmonics, v/fundamental)
	}

	totalAbs := 0.0
	for i := lowerBin; i <= upperBin; i++ {
		totalAbs += sqrtPositive(magSquared[i])
	}

	thdnAbs := max(totalAbs-fundamental, 0)
	noiseAbs := max(thdnAbs-thdAbs, 0)

	res.FundamentalLevel = fundamental
	res.THD = thdAbs / fundamental
	res.THDN = thdnAbs / fundamental
	res.THDdB = ratioToDB(res.THD)
	res.THDNdB = ratioToDB(res.THDN)
	res.OddHD = oddAbs / fundamental
	res.EvenHD = evenAbs / fundamental
	res.Noise = noiseAbs / fundamental

	res.SINAD = math.Inf(1)
	if res.THDN > 0 {
		res.SINAD = -ratioToDB(res.THDN)
	}

	return res
}

func (c *Calculator) fundamentalBin(magSquared []float64, lowerBin, upperBin int, binHz float64) int {
	if c.cfg.FundamentalFreq > 0 {
		return clampInt(int(math.Round(c.cfg.FundamentalFreq/binHz)), lowerBin, upperBin)
	}

	best, bestVal := lowerBin, -1.0
	for i := lowerBin; i <= upperBin; i++ {
		if magSquared[i] > bestVal {
			best, bestVal = i, magSquared[i]
		}
	}

	return best
}

func normalizeConfig(cfg Config) Config {
	if cfg.RangeLowerFreq <= 0 {
		cfg.RangeLowerFreq = defaultRangeLowerHz
	}

	if cfg.RangeUpperFreq <= 0 {
		cfg.RangeUpperFreq = min(defaultRangeUpperHz, cfg.SampleRate/2)
	}

	cfg.RangeUpperFreq = max(cfg.RangeUpperFreq, cfg.RangeLowerFreq)
	cfg.CaptureBins = max(cfg.CaptureBins, 0)
	cfg.MaxHarmonics = max(cfg.MaxHarmonics, 0)

	return cfg
}

// binSum adds the amplitudes of the bins within capture of bin.
func binSum(magSquared []float64, bin, capture int) float64 {
	lo := max(bin-capture, 0)
	hi := min(bin+capture, len(magSquared)-1)

	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += sqrtPositive(magSquared[i])
	}

	return sum
}

func sqrtPositive(v float64) float64 {
	if v <= 0 {
		return 0
	}

	return math.Sqrt(v)
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}

func clampInt(val, lo, hi int) int {
	return max(lo, min(val, hi))
}

func nextPowerOf2(n int) int {
	p := 2
	for p < n {
		p <<= 1
	}

	return p
}
