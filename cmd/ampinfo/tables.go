package main

import (
	"fmt"
	"io"

	"github.com/cwbudde/algo-amp/amp"
	"github.com/cwbudde/algo-amp/dsp/effects/cabinet"
	"github.com/cwbudde/algo-amp/dsp/effects/tube"
	"github.com/cwbudde/algo-amp/dsp/effects/wdf"
	"github.com/cwbudde/algo-amp/dsp/filter/tonestack"
	"github.com/cwbudde/algo-amp/measure/thd"
)

type toneSetting struct {
	name              string
	bass, mid, treble float64
}

var toneSettings = []toneSetting{
	{"flat", 0.5, 0.5, 0.5},
	{"bass up", 1, 0.5, 0.5},
	{"scooped", 0.7, 0, 0.7},
	{"bright", 0.5, 0.5, 1},
	{"dark", 0.5, 0.5, 0},
}

func printToneStack(w io.Writer, opts options) error {
	voicings := []struct {
		name  string
		parts tonestack.Components
	}{
		{"bassman", tonestack.Bassman},
		{"bassman-bass", tonestack.BassmanBass},
	}

	var rows [][]string

	for _, v := range voicings {
		for _, s := range toneSettings {
			ts, err := tonestack.New(v.parts)
			if err != nil {
				return err
			}

			if err := ts.Prepare(opts.spec()); err != nil {
				return err
			}

			ts.SetBass(s.bass)
			ts.SetMid(s.mid)
			ts.SetTreble(s.treble)

			rows = append(rows, dbCells(v.name+" "+s.name, ts.Response))
		}
	}

	return writeTable(w, freqHeader("Voicing [dB]"), rows)
}

func printCabinet(w io.Writer, opts options) error {
	var rows [][]string

	for t := cabinet.Small; t <= cabinet.Large; t++ {
		cab, err := cabinet.New(cabinet.WithType(t))
		if err != nil {
			return err
		}

		if err := cab.Prepare(opts.spec()); err != nil {
			return err
		}

		rows = append(rows, dbCells(t.String(), cab.Response))
	}

	return writeTable(w, freqHeader("Cabinet [dB]"), rows)
}

type stageRow struct {
	name  string
	build func(opts options) (thd.Processor, error)
}

func triodeAt(g float64) func(options) (thd.Processor, error) {
	return func(opts options) (thd.Processor, error) {
		gp := 1 + 19*g
		t, err := tube.NewTriode(tube.WithTriodeGains(gp, 0.6*gp))
		if err != nil {
			return nil, err
		}

		return t, t.Prepare(opts.spec())
	}
}

func clipperAt(d float64) func(options) (thd.Processor, error) {
	return func(opts options) (thd.Processor, error) {
		c, err := wdf.NewClipper()
		if err != nil {
			return nil, err
		}

		if err := c.Prepare(opts.spec()); err != nil {
			return nil, err
		}

		c.SetDistortion(d)

		return c, nil
	}
}

func pentodeAt[C tube.Curve](curve C, drive float64) func(options) (thd.Processor, error) {
	return func(opts options) (thd.Processor, error) {
		p, err := tube.NewPentode(curve, tube.WithDrive(drive))
		if err != nil {
			return nil, err
		}

		return p, p.Prepare(opts.spec())
	}
}

var stageRows = []stageRow{
	{"triode g=0.0", triodeAt(0)},
	{"triode g=0.5", triodeAt(0.5)},
	{"triode g=1.0", triodeAt(1)},
	{"clipper d=0.0", clipperAt(0)},
	{"clipper d=0.5", clipperAt(0.5)},
	{"clipper d=1.0", clipperAt(1)},
	{"pentode classic x2", pentodeAt(tube.Classic{Lp: 1, Ln: 0.7}, 2)},
	{"pentode classic x6", pentodeAt(tube.Classic{Lp: 1, Ln: 0.7}, 6)},
	{"pentode nu x2", pentodeAt(tube.Nu{Kp: 1.2, Kn: 0.8}, 2)},
	{"pentode nu x6", pentodeAt(tube.Nu{Kp: 1.2, Kn: 0.8}, 6)},
}

func thdHeader(first string) []string {
	return []string{first, "THD [%]", "THD+N [%]", "H2 [dB]", "H3 [dB]", "Odd [%]", "Even [%]"}
}

func thdRow(label string, res thd.Result) []string {
	return []string{
		label,
		percent(res.THD),
		percent(res.THDN),
		harmonicDB(res, 2),
		harmonicDB(res, 3),
		percent(res.OddHD),
		percent(res.EvenHD),
	}
}

func printStageTHD(w io.Writer, opts options) error {
	probe, err := opts.probe()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "tone %.2f Hz, amplitude %.2f\n", probe.Frequency(), opts.amplitude)

	var rows [][]string

	for _, r := range stageRows {
		s, err := r.build(opts)
		if err != nil {
			return fmt.Errorf("%s: %w", r.name, err)
		}

		rows = append(rows, thdRow(r.name, probe.Measure(s, opts.amplitude)))
	}

	return writeTable(w, thdHeader("Stage"), rows)
}

func printChainTHD(w io.Writer, opts options) error {
	probe, err := opts.probe()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "tone %.2f Hz, amplitude %.2f, reverb off\n", probe.Frequency(), opts.amplitude)

	var rows [][]string

	for _, kind := range []amp.Kind{amp.KindGuitar, amp.KindBass, amp.KindChannel} {
		for _, gain := range []float64{0.2, 0.8} {
			reg, err := amp.NewRegistry(kind)
			if err != nil {
				return err
			}

			if err := reg.SetFloat(amp.ParamReverbMix, 0); err != nil {
				return err
			}

			if err := reg.SetFloat(amp.ParamPreamp, gain); err != nil {
				return err
			}

			proc, err := amp.New(kind, reg)
			if err != nil {
				return err
			}

			if err := proc.Prepare(opts.spec()); err != nil {
				return err
			}

			label := fmt.Sprintf("%s preamp=%.1f", kind, gain)
			rows = append(rows, thdRow(label, probe.Measure(proc, opts.amplitude)))
		}
	}

	return writeTable(w, thdHeader("Amp"), rows)
}
