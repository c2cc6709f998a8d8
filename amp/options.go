package amp

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-amp/dsp/effects/reverb"
)

const defaultOutputRampMs = 50.0

// Option configures a Processor.
type Option func(*config) error

type config struct {
	outputRampMs  float64
	reverbOptions []reverb.ManagerOption
}

func defaultConfig() config {
	return config{outputRampMs: defaultOutputRampMs}
}

// WithOutputRampMs sets the output gain smoothing time.
func WithOutputRampMs(ms float64) Option {
	return func(cfg *config) error {
		if ms < 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return fmt.Errorf("amp output ramp must be >= 0: %f", ms)
		}

		cfg.outputRampMs = ms

		return nil
	}
}

// WithReverbDownsampling runs the reverb core at 1/ratio of the host rate.
func WithReverbDownsampling(ratio int) Option {
	return func(cfg *config) error {
		cfg.reverbOptions = append(cfg.reverbOptions,
			reverb.WithRoomOptions(reverb.WithDownsampling(ratio)))

		return nil
	}
}

// WithReverbCrossfade sets how long a reverb reconfiguration fades.
func WithReverbCrossfade(seconds float64) Option {
	return func(cfg *config) error {
		cfg.reverbOptions = append(cfg.reverbOptions, reverb.WithCrossfadeSeconds(seconds))
		return nil
	}
}
