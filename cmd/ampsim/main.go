// Command ampsim plays Karplus-Strong strings through an amp chain on the
// default audio device and maps keys to amp parameters.
//
// Usage:
//
//	ampsim [flags]
//
// Examples:
//
//	ampsim
//	ampsim -amp bass -block 256
//	ampsim -amp channel -duration 10s
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/ebitengine/oto/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/cwbudde/algo-amp/amp"
	"github.com/cwbudde/algo-amp/dsp/core"
)

var errQuit = errors.New("quit")

type options struct {
	kind       amp.Kind
	sampleRate int
	block      int
	bufferMs   int
	duration   time.Duration
	downsample int
	seed       uint64
	verbose    bool
}

func main() {
	kindName := flag.String("amp", "guitar", "amp chain: guitar, bass or channel")
	sampleRate := flag.Int("rate", 48000, "output sample rate in Hz")
	block := flag.Int("block", 512, "processing block size in frames")
	bufferMs := flag.Int("buffer", 40, "device buffer length in ms")
	duration := flag.Duration("duration", 0, "play a strum loop for this long instead of reading keys")
	downsample := flag.Int("reverb-downsample", 2, "reverb internal downsampling ratio (1, 2 or 4)")
	seed := flag.Uint64("seed", 1, "string excitation seed")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ampsim [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Plays plucked strings through a guitar, bass or channel amp.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n%s", helpText)
	}
	flag.Parse()

	kind, err := amp.ParseKind(*kindName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	opts := options{
		kind:       kind,
		sampleRate: *sampleRate,
		block:      *block,
		bufferMs:   *bufferMs,
		duration:   *duration,
		downsample: *downsample,
		seed:       *seed,
		verbose:    *verbose,
	}

	if err := run(opts); err != nil && !errors.Is(err, errQuit) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}

	fd := int(os.Stdin.Fd())
	interactive := opts.duration == 0 && term.IsTerminal(fd)

	out := crlfWriter{w: os.Stderr}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	reg, err := amp.NewRegistry(opts.kind)
	if err != nil {
		return err
	}

	proc, err := amp.New(opts.kind, reg, amp.WithReverbDownsampling(opts.downsample))
	if err != nil {
		return err
	}

	spec := core.NewProcessSpec(
		core.WithSampleRate(float64(opts.sampleRate)),
		core.WithBlockSize(opts.block),
		core.WithChannels(2),
	)

	if err := proc.Prepare(spec); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}

	eng, err := newEngine(proc, spec, opts.seed, logger)
	if err != nil {
		return err
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   opts.sampleRate,
		ChannelCount: int(spec.NumChannels),
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(opts.bufferMs) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("audio device: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(eng)
	defer player.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if interactive {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer func() { _ = term.Restore(fd, oldState) }()
	}

	logger.Info("ampsim started", "amp", opts.kind, "rate", opts.sampleRate, "block", opts.block,
		"stages", len(proc.Chain().Stages()))
	player.Play()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return drainLoop(ctx, proc, logger) })
	g.Go(func() error { return meterLoop(ctx, proc, eng, logger) })

	if interactive {
		ctl := &controller{reg: reg, engine: eng, out: out, log: logger}
		fmt.Fprint(out, helpText)

		keys := make(chan byte)
		go readKeys(os.Stdin, keys)

		g.Go(func() error { return keyLoop(ctx, ctl, keys) })
	} else {
		g.Go(func() error { return strumLoop(ctx, eng, opts.duration) })
	}

	err = g.Wait()
	logger.Info("ampsim stopped")

	return err
}

// keyLoop applies key presses until quit or cancellation.
func keyLoop(ctx context.Context, ctl *controller, keys <-chan byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok || ctl.handle(k) {
				return errQuit
			}
		}
	}
}

// strumLoop strums every two seconds for d, then ends the session.
func strumLoop(ctx context.Context, eng *engine, d time.Duration) error {
	if d <= 0 {
		d = 10 * time.Second
	}

	deadline := time.After(d)
	tick := time.NewTicker(2 * time.Second)
	defer tick.Stop()

	eng.Strum()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			return errQuit
		case <-tick.C:
			eng.Strum()
		}
	}
}

// drainLoop recycles retired reverb rooms off the audio thread.
func drainLoop(ctx context.Context, proc *amp.Processor, logger *slog.Logger) error {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if n := proc.Drain(); n > 0 {
				logger.Debug("reverb rooms recycled", "count", n)
			}
		}
	}
}

// meterLoop logs levels once per second while something is playing.
func meterLoop(ctx context.Context, proc *amp.Processor, eng *engine, logger *slog.Logger) error {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			m := proc.Meters()
			if m.OutputPeak[0] < 1e-4 && m.OutputPeak[1] < 1e-4 {
				continue
			}

			logger.Info("meters",
				"in", fmt.Sprintf("%.1f dB", core.LinearToDB(max(m.InputPeak[0], m.InputPeak[1]))),
				"out", fmt.Sprintf("%.1f dB", core.LinearToDB(max(m.OutputPeak[0], m.OutputPeak[1]))),
				"gr", fmt.Sprintf("%.1f dB", m.GainReductionDB),
				"loudness", fmt.Sprintf("%.1f LUFS", eng.Loudness()),
				"ready", proc.Ready(),
			)
		}
	}
}
