// Command ampinfo prints frequency responses and distortion tables for the
// amp building blocks.
//
// Usage:
//
//	ampinfo [flags] [table ...]
//
// Tables: tonestack, cabinet, thd, chain. Without arguments all are printed.
//
// Examples:
//
//	ampinfo tonestack
//	ampinfo -rate 96000 cabinet thd
//	ampinfo -fft 32768 -freq 220 chain
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/measure/thd"
)

var tables = []struct {
	name  string
	print func(w io.Writer, opts options) error
}{
	{"tonestack", printToneStack},
	{"cabinet", printCabinet},
	{"thd", printStageTHD},
	{"chain", printChainTHD},
}

// Response columns in Hz.
var responseFreqs = []float64{63, 125, 250, 500, 1000, 2000, 4000, 8000}

type options struct {
	sampleRate float64
	fftSize    int
	freq       float64
	amplitude  float64
	block      int
}

func (o options) spec() core.ProcessSpec {
	return core.NewProcessSpec(
		core.WithSampleRate(o.sampleRate),
		core.WithBlockSize(o.block),
		core.WithChannels(1),
	)
}

func (o options) probe() (*thd.Probe, error) {
	return thd.NewProbe(thd.Config{
		SampleRate:      o.sampleRate,
		FFTSize:         o.fftSize,
		FundamentalFreq: o.freq,
		MaxHarmonics:    10,
		Window:          thd.WindowBlackmanHarris,
	}, o.block, int(o.sampleRate/2))
}

func main() {
	sampleRate := flag.Float64("rate", 48000, "sample rate in Hz")
	fftSize := flag.Int("fft", 16384, "THD analysis FFT size (power of two)")
	freq := flag.Float64("freq", 440, "THD test frequency in Hz, snapped to an FFT bin")
	amplitude := flag.Float64("amp", 0.5, "THD test tone peak amplitude")
	block := flag.Int("block", 512, "processing block size")
	list := flag.Bool("list", false, "list available tables")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ampinfo [flags] [table ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints responses and distortion of amp stages.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, prints every table.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ampinfo tonestack\n")
		fmt.Fprintf(os.Stderr, "  ampinfo -rate 96000 cabinet thd\n")
		fmt.Fprintf(os.Stderr, "  ampinfo -fft 32768 -freq 220 chain\n")
	}
	flag.Parse()

	if *list {
		for _, t := range tables {
			fmt.Println(t.name)
		}

		return
	}

	opts := options{
		sampleRate: *sampleRate,
		fftSize:    *fftSize,
		freq:       *freq,
		amplitude:  *amplitude,
		block:      *block,
	}

	if err := run(os.Stdout, flag.Args(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, names []string, opts options) error {
	if opts.sampleRate <= 0 || math.IsNaN(opts.sampleRate) {
		return fmt.Errorf("sample rate must be > 0: %f", opts.sampleRate)
	}

	if opts.block <= 0 {
		return fmt.Errorf("block size must be > 0: %d", opts.block)
	}

	selected, err := selectTables(names)
	if err != nil {
		return err
	}

	for i, t := range tables {
		if !selected[i] {
			continue
		}

		fmt.Fprintf(w, "== %s ==\n", t.name)

		if err := t.print(w, opts); err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}

		fmt.Fprintln(w)
	}

	return nil
}

func selectTables(names []string) ([]bool, error) {
	selected := make([]bool, len(tables))
	if len(names) == 0 {
		for i := range selected {
			selected[i] = true
		}

		return selected, nil
	}

	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		found := false

		for i, t := range tables {
			if t.name == name {
				selected[i] = true
				found = true
			}
		}

		if !found {
			return nil, fmt.Errorf("unknown table %q (use -list to see available)", name)
		}
	}

	return selected, nil
}

// writeTable writes header and rows through a tabwriter.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	rule := make([]string, len(header))
	for i, h := range header {
		rule[i] = strings.Repeat("-", len(h))
	}

	for _, line := range append([][]string{header, rule}, rows...) {
		if _, err := fmt.Fprintln(tw, strings.Join(line, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func freqHeader(first string) []string {
	h := []string{first}
	for _, f := range responseFreqs {
		if f >= 1000 {
			h = append(h, fmt.Sprintf("%gk", f/1000))
		} else {
			h = append(h, fmt.Sprintf("%g", f))
		}
	}

	return h
}

func dbCells(label string, response func(float64) float64) []string {
	row := []string{label}
	for _, f := range responseFreqs {
		row = append(row, fmt.Sprintf("%.1f", response(f)))
	}

	return row
}

func percent(r float64) string {
	return fmt.Sprintf("%.3f", 100*r)
}

func harmonicDB(res thd.Result, k int) string {
	i := k - 2
	if i < 0 || i >= len(res.Harmonics) || res.Harmonics[i] <= 0 {
		return "-inf"
	}

	return fmt.Sprintf("%.1f", 20*math.Log10(res.Harmonics[i]))
}
