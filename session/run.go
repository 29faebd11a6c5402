package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-wavqa/histogram"
	"github.com/cwbudde/algo-wavqa/pcm"
	"github.com/cwbudde/algo-wavqa/plan"
)

const referenceName = "reference"

// Summary collects everything a plan run produced.
type Summary struct {
	Plan         *plan.Plan
	Histograms   map[pcm.Derivation]*histogram.Histogram
	Quantization map[string]SweepResult
	Effects      *EffectsReport
	// Warnings holds recoverable failures such as missing variant files.
	Warnings error
}

// Step names reported to the progress callback of Run.
const (
	StepLoad         = "load"
	StepHistograms   = "histograms"
	StepQuantization = "quantization"
	StepEffects      = "effects"
)

// Steps lists the Run steps in order.
var Steps = []string{StepLoad, StepHistograms, StepQuantization, StepEffects}

// Run executes p in a fresh session. progress, if not nil, is called after
// each step. A missing reference aborts the run; missing variants are
// collected into Summary.Warnings and skipped.
func Run(p *plan.Plan, progress func(step string)) (*Summary, error) {
	if progress == nil {
		progress = func(string) {}
	}
	s := New(WithLayout(p.Layout), WithWorkers(p.Workers))
	defer s.Close()

	sum := &Summary{Plan: p}
	if err := s.Load(referenceName, p.Reference); err != nil {
		return nil, err
	}
	var warnings []error
	if err := s.LoadAll(p.Variants); err != nil {
		warnings = append(warnings, err)
	}
	progress(StepLoad)

	views := usableViews(p.Derivations, s)
	h, err := s.Histograms(referenceName, views, p.BinWidth)
	if err != nil {
		return nil, err
	}
	sum.Histograms = h
	progress(StepHistograms)

	q, err := s.QuantizationSweep(referenceName, p.BitDepths...)
	if err != nil {
		return nil, err
	}
	sum.Quantization = q
	progress(StepQuantization)

	var loaded []string
	for _, name := range p.VariantNames() {
		if _, err := s.Signal(name); err == nil {
			loaded = append(loaded, name)
		}
	}
	eff, err := s.EffectsAnalysis(referenceName, loaded, p.WindowSize)
	if eff == nil {
		return nil, err
	}
	if err != nil {
		warnings = append(warnings, err)
	}
	sum.Effects = eff
	progress(StepEffects)

	if len(warnings) > 0 {
		sum.Warnings = errors.Join(warnings...)
	}
	return sum, nil
}

// usableViews drops the stereo-only views when the reference is mono.
func usableViews(views []pcm.Derivation, s *Session) []pcm.Derivation {
	ref, err := s.Signal(referenceName)
	if err != nil || ref.NumChannels() >= 2 {
		return views
	}
	var out []pcm.Derivation
	for _, d := range views {
		if d == pcm.Left {
			out = append(out, d)
		}
	}
	return out
}

// StemFor names the requantized copy of reference for a sweep label:
// "dir/sample.wav" and "8bit" give "sample_8bit".
func StemFor(reference, label string) string {
	base := filepath.Base(reference)
	return fmt.Sprintf("%s_%s", strings.TrimSuffix(base, filepath.Ext(base)), label)
}
