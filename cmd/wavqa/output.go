package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/cwbudde/algo-wavqa/analysis"
	"github.com/cwbudde/algo-wavqa/report"
	"github.com/cwbudde/algo-wavqa/session"
	"github.com/cwbudde/algo-wavqa/spectral"
)

func printSweepTable(w io.Writer, res map[string]session.SweepResult, labels []string) {
	fmt.Fprintf(w, "%-6s %7s %10s %9s %6s %14s %12s %10s %10s\n",
		"Depth", "Levels", "Step", "Distinct", "Ratio", "MSE", "Max Abs Err", "SNR (dB)", "PSNR (dB)")
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────────────────────────────────────\n")
	for _, l := range labels {
		r, ok := res[l]
		if !ok {
			continue
		}
		a := r.Comparison.Average
		fmt.Fprintf(w, "%-6s %7d %10.1f %9d %5.1f:1 %14.3f %12.0f %10s %10s\n",
			l, r.Profile.Levels, r.Profile.Step, r.Distinct, r.CompressionRatio, a.MSE, a.MaxAbsError,
			report.FormatSNR(a.SNRDB), report.FormatSNR(a.PSNRDB))
	}
}

func printComparison(w io.Writer, cmp analysis.SignalComparison) {
	fmt.Fprintf(w, "%-9s %14s %12s %10s %10s\n", "Channel", "MSE", "Max Abs Err", "SNR (dB)", "PSNR (dB)")
	fmt.Fprintf(w, "───────────────────────────────────────────────────────────\n")
	for _, ch := range cmp.Channels {
		fmt.Fprintf(w, "%-9d %14.3f %12.0f %10s %10s\n",
			ch.Channel, ch.MSE, ch.MaxAbsError, report.FormatSNR(ch.SNRDB), report.FormatSNR(ch.PSNRDB))
	}
	a := cmp.Average
	fmt.Fprintf(w, "───────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%-9s %14.3f %12.0f %10s %10s\n",
		"Average", a.MSE, a.MaxAbsError, report.FormatSNR(a.SNRDB), report.FormatSNR(a.PSNRDB))
}

func printProfile(w io.Writer, p session.SignalProfile) {
	td := p.TimeDomain
	sum := p.Spectrum.Summary()
	peakHz, _ := p.Spectrum.Peak()
	printKV(w, "Sample rate", "%d Hz", p.SampleRate)
	printKV(w, "RMS", "%.4f", td.RMS)
	printKV(w, "Peak", "%.4f", td.Peak)
	printKV(w, "Crest factor", "%s", formatFinite(td.CrestFactor, "%.2f"))
	printKV(w, "Dynamic range", "%s dB", formatFinite(td.DynamicRangeDB, "%.1f"))
	printKV(w, "Zero crossings", "%d", td.ZeroCrossings)
	printKV(w, "Spectral peak", "%.1f Hz", peakHz)
	printKV(w, "Centroid", "%.1f Hz", sum.Centroid)
	printKV(w, "Rolloff (85%)", "%.1f Hz", sum.Rolloff)
	printKV(w, "Flatness", "%.3f", sum.Flatness)
}

// printTimeWindows shows where the spectral peak sits along the envelope.
func printTimeWindows(w io.Writer, p session.SignalProfile) {
	spec := p.Spectrum
	for _, tw := range spectral.DefaultTimeWindows() {
		avg := spec.AverageBetween(tw.StartSec, tw.EndSec)
		if avg == nil {
			continue
		}
		k := peakBin(avg)
		printKV(w, tw.Name, "peak %.1f Hz (%.1f dB)", spec.Frequencies[k], 20*math.Log10(avg[k]+1e-12))
	}
}

// peakBin returns the strongest non-DC bin, or 0 for spectra of one bin.
func peakBin(m []float64) int {
	best := 0
	for k := 1; k < len(m); k++ {
		if best == 0 || m[k] > m[best] {
			best = k
		}
	}
	return best
}

func printEffects(w io.Writer, rep *session.EffectsReport) {
	fmt.Fprintf(w, "%-20s %8s %11s %10s %10s %12s\n", "Variant", "Score", "Similarity", "Lag (ms)", "RMS", "Centroid Hz")
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────────────────────\n")
	for _, name := range rankedVariants(rep) {
		v := rep.Variants[name]
		d := v.Distance
		fmt.Fprintf(w, "%-20s %8.4f %10.1f%% %10.2f %10.4f %12.1f\n",
			name, d.Score, 100*d.Similarity, lagMillis(d), v.TimeDomain.RMS, v.Spectrum.Summary().Centroid)
	}
}

// rankedVariants orders variants from closest to farthest.
func rankedVariants(rep *session.EffectsReport) []string {
	names := make([]string, 0, len(rep.Variants))
	for n := range rep.Variants {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := rep.Variants[names[i]].Distance.Score, rep.Variants[names[j]].Distance.Score
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	return names
}

func lagMillis(d analysis.DistanceMetrics) float64 {
	if d.SampleRate <= 0 {
		return 0
	}
	return 1000 * float64(d.LagSamples) / float64(d.SampleRate)
}

func formatFinite(v float64, format string) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return report.FormatSNR(v)
	}
	return fmt.Sprintf(format, v)
}

// writeEffectsReport renders the effects analysis as markdown: a ranking
// table followed by one band table per variant.
func writeEffectsReport(w io.Writer, reference string, rep *session.EffectsReport) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "# Effects Analysis Report\n\n")
	fmt.Fprintf(bw, "Reference: `%s`\n\n", reference)

	ref := rep.Reference
	fmt.Fprint(bw, "## Reference\n\n")
	fmt.Fprint(bw, "| RMS | Peak | Crest Factor | Dynamic Range (dB) | Zero Crossings | Centroid (Hz) |\n")
	fmt.Fprint(bw, "|-----|------|--------------|--------------------|----------------|---------------|\n")
	fmt.Fprintf(bw, "| %.4f | %.4f | %s | %s | %d | %.1f |\n\n",
		ref.TimeDomain.RMS, ref.TimeDomain.Peak,
		formatFinite(ref.TimeDomain.CrestFactor, "%.2f"), formatFinite(ref.TimeDomain.DynamicRangeDB, "%.1f"),
		ref.TimeDomain.ZeroCrossings, ref.Spectrum.Summary().Centroid)

	names := rankedVariants(rep)
	fmt.Fprint(bw, "## Ranking\n\n")
	fmt.Fprint(bw, "| Variant | Score | Similarity | Lag (ms) | Envelope RMSE (dB) | Spectral RMSE (dB) | Decay Diff (dB/s) |\n")
	fmt.Fprint(bw, "|---------|-------|------------|----------|--------------------|--------------------|-------------------|\n")
	for _, name := range names {
		d := rep.Variants[name].Distance
		fmt.Fprintf(bw, "| %s | %.4f | %.1f%% | %.2f | %.2f | %.2f | %.2f |\n",
			name, d.Score, 100*d.Similarity, lagMillis(d), d.EnvelopeRMSEDB, d.SpectralRMSEDB, d.DecayDiffDBPerS)
	}

	for _, name := range names {
		v := rep.Variants[name]
		fmt.Fprintf(bw, "\n## %s\n\n", name)
		fmt.Fprint(bw, "| Band | Bins | RMSE (dB) | Level Diff (dB) |\n")
		fmt.Fprint(bw, "|------|------|-----------|-----------------|\n")
		for _, b := range v.Bands {
			fmt.Fprintf(bw, "| %s | %d | %.2f | %+.2f |\n", b.Band.Name, b.Bins, b.RMSEDB, b.LevelDiffDB)
		}
	}
	return bw.Flush()
}
