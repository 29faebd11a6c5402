package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cheggaaa/pb"

	"github.com/cwbudde/algo-wavqa/analysis"
	"github.com/cwbudde/algo-wavqa/pcm"
	"github.com/cwbudde/algo-wavqa/plan"
	"github.com/cwbudde/algo-wavqa/quantize"
	"github.com/cwbudde/algo-wavqa/report"
	"github.com/cwbudde/algo-wavqa/session"
)

const (
	inputName     = "input"
	referenceName = "reference"
	testName      = "test"

	effectsReportName = "effects_analysis_report.md"
	packedExt         = ".qpcm"
)

type histCmd struct {
	Input string   `arg:"" type:"existingfile" help:"WAV file to analyze."`
	Bin   int      `default:"1" help:"Bin width in sample values."`
	Views []string `default:"left,right,mid,side" help:"Channel views to dump."`
	Out   string   `type:"path" help:"Directory for <name>_<view>_bin<N>.txt dumps. Prints to stdout when empty."`
}

func (c *histCmd) Run(g *Globals) error {
	views, err := parseViews(c.Views)
	if err != nil {
		return err
	}
	s, err := g.newSession()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Load(inputName, c.Input); err != nil {
		return err
	}
	hs, err := s.Histograms(inputName, views, c.Bin)
	if err != nil {
		return err
	}

	if c.Out == "" {
		for _, v := range views {
			if _, err := hs[v].WriteTo(os.Stdout); err != nil {
				return err
			}
			fmt.Println()
		}
		return nil
	}
	printTitle(os.Stdout, "Histograms of "+c.Input)
	for _, v := range views {
		h := hs[v]
		path := filepath.Join(c.Out, histogramFileName(stem(c.Input), v, c.Bin))
		if err := writeFile(path, func(w io.Writer) error {
			_, err := h.WriteTo(w)
			return err
		}); err != nil {
			return err
		}
		mode, _ := h.Mode()
		printKV(os.Stdout, v.String(), "%d bins, mode %d (%d) -> %s", h.Distinct(), mode.Value, mode.Count, path)
	}
	return nil
}

func parseViews(names []string) ([]pcm.Derivation, error) {
	out := make([]pcm.Derivation, 0, len(names))
	for _, n := range names {
		d, err := pcm.ParseDerivation(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

type quantizeCmd struct {
	Input   string `arg:"" type:"existingfile" help:"16-bit WAV file to requantize."`
	Bits    []int  `default:"8,4,2,1" help:"Target bit depths (1-16)."`
	Out     string `type:"path" default:"." help:"Directory for the requantized files."`
	Reports bool   `help:"Write a markdown comparison report next to each requantized file."`
	Packed  bool   `help:"Also write each depth bit-packed as <name>.qpcm."`
}

func (c *quantizeCmd) Run(g *Globals) error {
	s, err := g.newSession()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Load(inputName, c.Input); err != nil {
		return err
	}
	res, err := s.QuantizationSweep(inputName, c.Bits...)
	if err != nil {
		return err
	}

	printTitle(os.Stdout, "Quantization of "+c.Input)
	printSweepTable(os.Stdout, res, sweepLabels(c.Bits))
	for _, label := range sweepLabels(c.Bits) {
		r := res[label]
		name := session.StemFor(c.Input, label)
		if err := pcm.WriteFile(filepath.Join(c.Out, name+".wav"), r.Signal); err != nil {
			return err
		}
		if c.Reports {
			if err := writeComparisonReport(c.Out, name, r.Comparison); err != nil {
				return err
			}
		}
		if c.Packed {
			path := filepath.Join(c.Out, name+packedExt)
			if err := writeFile(path, func(w io.Writer) error {
				return quantize.Encode(w, r.Signal, r.Profile)
			}); err != nil {
				return err
			}
			printKV(os.Stdout, label, "%d bytes -> %s", r.EncodedBytes, path)
		}
	}
	return nil
}

type unpackCmd struct {
	Input string `arg:"" type:"existingfile" help:"Bit-packed .qpcm file written by quantize --packed."`
	Out   string `type:"path" help:"WAV file to write. Defaults to the input with a .wav extension."`
}

func (c *unpackCmd) Run() error {
	f, err := os.Open(c.Input)
	if err != nil {
		return err
	}
	defer f.Close()
	sig, p, err := quantize.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Input, err)
	}
	out := c.Out
	if out == "" {
		out = strings.TrimSuffix(c.Input, filepath.Ext(c.Input)) + ".wav"
	}
	if err := pcm.WriteFile(out, sig); err != nil {
		return err
	}
	printKV(os.Stdout, p.Label(), "%d channels, %d frames at %d Hz -> %s", sig.NumChannels(), sig.Len(), sig.SampleRate(), out)
	return nil
}

// sweepLabels returns the labels of bits in order, skipping repeats.
func sweepLabels(bits []int) []string {
	seen := make(map[string]bool, len(bits))
	out := make([]string, 0, len(bits))
	for _, b := range bits {
		p, err := quantize.NewProfile(b)
		if err != nil || seen[p.Label()] {
			continue
		}
		seen[p.Label()] = true
		out = append(out, p.Label())
	}
	return out
}

type compareCmd struct {
	Reference string `arg:"" type:"existingfile" help:"Reference WAV file."`
	Test      string `arg:"" type:"existingfile" help:"Degraded or processed WAV file."`
	Report    string `type:"path" help:"Directory to write comparison_<test>_report.md into."`
}

func (c *compareCmd) Run(g *Globals) error {
	s, err := g.newSession()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.LoadAll(map[string]string{referenceName: c.Reference, testName: c.Test}); err != nil {
		return err
	}
	ref, _ := s.Signal(referenceName)
	test, _ := s.Signal(testName)
	cmp, err := analysis.CompareSignals(ref, test)
	if err != nil {
		return err
	}

	printTitle(os.Stdout, fmt.Sprintf("%s vs %s", c.Test, c.Reference))
	printComparison(os.Stdout, cmp)
	if c.Report != "" {
		return writeComparisonReport(c.Report, stem(c.Test), cmp)
	}
	return nil
}

type spectrumCmd struct {
	Input    string   `arg:"" type:"existingfile" help:"Reference WAV file."`
	Variants []string `arg:"" optional:"" type:"existingfile" help:"Effect-processed versions of the reference."`
	Window   int      `default:"2048" help:"STFT window size in samples."`
	Report   string   `type:"path" help:"Directory to write effects_analysis_report.md into."`
}

func (c *spectrumCmd) Run(g *Globals) error {
	s, err := g.newSession()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Load(referenceName, c.Input); err != nil {
		return err
	}
	paths := variantPaths(c.Variants)
	if err := s.LoadAll(paths); err != nil {
		printWarning(err.Error())
	}
	var names []string
	for _, n := range s.Names() {
		if n != referenceName {
			names = append(names, n)
		}
	}

	rep, err := s.EffectsAnalysis(referenceName, names, c.Window)
	if rep == nil {
		return err
	}
	if err != nil {
		printWarning(err.Error())
	}
	printTitle(os.Stdout, "Spectrum of "+c.Input)
	printProfile(os.Stdout, rep.Reference)
	printTimeWindows(os.Stdout, rep.Reference)
	if len(rep.Variants) > 0 {
		fmt.Println()
		printEffects(os.Stdout, rep)
	}
	if c.Report != "" {
		return writeFile(filepath.Join(c.Report, effectsReportName), func(w io.Writer) error {
			return writeEffectsReport(w, c.Input, rep)
		})
	}
	return nil
}

// variantPaths keys variant files by file stem, falling back to the full
// path when two stems collide.
func variantPaths(files []string) map[string]string {
	count := make(map[string]int, len(files))
	for _, f := range files {
		count[stem(f)]++
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		name := stem(f)
		if count[name] > 1 || name == referenceName {
			name = f
		}
		out[name] = f
	}
	return out
}

type reportsCmd struct {
	Dir string `arg:"" type:"existingdir" help:"Directory holding comparison_*_report.md files."`
}

func (c *reportsCmd) Run() error {
	recs, err := report.ParseDir(c.Dir)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		printWarning("no comparison reports found in " + c.Dir)
		return nil
	}
	labels := make([]string, 0, len(recs))
	for l := range recs {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	printTitle(os.Stdout, "Reports in "+c.Dir)
	fmt.Printf("%-12s %14s %14s %10s %9s\n", "Label", "MSE", "Max Abs Err", "SNR (dB)", "Channels")
	for _, l := range labels {
		r := recs[l]
		fmt.Printf("%-12s %14.3f %14.3f %10s %9d\n", l, r.Average.MSE, r.Average.MaxAbsError, report.FormatSNR(r.Average.SNRDB), len(r.Channels))
	}
	return nil
}

type runCmd struct {
	Plan  string `arg:"" type:"existingfile" help:"JSON run plan."`
	Quiet bool   `short:"q" help:"Hide the progress bar."`
}

func (c *runCmd) Run() error {
	p, err := plan.LoadJSON(c.Plan)
	if err != nil {
		return err
	}

	bar := pb.New(len(session.Steps)).Prefix("wavqa ")
	bar.Output = os.Stderr
	bar.ShowTimeLeft = false
	bar.NotPrint = c.Quiet
	bar.Start()
	sum, err := session.Run(p, func(step string) {
		bar.Prefix(step + " ")
		bar.Increment()
	})
	bar.Finish()
	if err != nil {
		return err
	}
	for _, w := range warningLines(sum.Warnings) {
		printWarning(w)
	}

	printTitle(os.Stdout, "Quantization of "+p.Reference)
	printSweepTable(os.Stdout, sum.Quantization, sweepLabels(p.BitDepths))
	if len(sum.Effects.Variants) > 0 {
		fmt.Println()
		printEffects(os.Stdout, sum.Effects)
	}
	if p.ReportDir == "" {
		return nil
	}
	if err := writeRunOutputs(p, sum); err != nil {
		return err
	}
	printKV(os.Stdout, "Reports", "%s", p.ReportDir)
	return nil
}

// writeRunOutputs writes histogram dumps, requantized files, comparison
// reports and the effects report into p.ReportDir.
func writeRunOutputs(p *plan.Plan, sum *session.Summary) error {
	dir := p.ReportDir
	for _, v := range pcm.Derivations {
		h, ok := sum.Histograms[v]
		if !ok {
			continue
		}
		if err := writeFile(filepath.Join(dir, histogramFileName(stem(p.Reference), v, p.BinWidth)), func(w io.Writer) error {
			_, err := h.WriteTo(w)
			return err
		}); err != nil {
			return err
		}
	}
	for _, label := range sweepLabels(p.BitDepths) {
		r := sum.Quantization[label]
		name := session.StemFor(p.Reference, label)
		if err := pcm.WriteFile(filepath.Join(dir, name+".wav"), r.Signal); err != nil {
			return err
		}
		if err := writeComparisonReport(dir, name, r.Comparison); err != nil {
			return err
		}
	}
	return writeFile(filepath.Join(dir, effectsReportName), func(w io.Writer) error {
		return writeEffectsReport(w, p.Reference, sum.Effects)
	})
}

// warningLines flattens joined and multi errors into one line each.
func warningLines(err error) []string {
	if err == nil {
		return nil
	}
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		var out []string
		for _, e := range multi.Unwrap() {
			out = append(out, warningLines(e)...)
		}
		return out
	}
	return []string{err.Error()}
}

func writeComparisonReport(dir, name string, cmp analysis.SignalComparison) error {
	return writeFile(filepath.Join(dir, report.FileName(name)), func(w io.Writer) error {
		return report.Write(w, cmp)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
