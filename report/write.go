package report

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-wavqa/analysis"
)

// FileName returns the report file name for a compared file stem, e.g.
// "sample_8bit" gives comparison_sample_8bit_report.md.
func FileName(stem string) string {
	return "comparison_" + stem + "_report.md"
}

// Write renders a comparison as a markdown report that Parse reads back.
// MSE and max error keep three decimals, SNR two.
func Write(w io.Writer, cmp analysis.SignalComparison) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "# Audio Comparison Report\n\n")
	fmt.Fprint(bw, "## Metrics Summary\n\n")
	fmt.Fprint(bw, "| Channel | MSE (L2 norm) | Max Abs Error (L∞ norm) | SNR (dB) |\n")
	fmt.Fprint(bw, "|---------|---------------|--------------------------|----------|\n")
	for _, ch := range cmp.Channels {
		fmt.Fprintf(bw, "| Channel %d | %.3f | %.3f | %s |\n", ch.Channel, ch.MSE, ch.MaxAbsError, FormatSNR(ch.SNRDB))
	}
	a := cmp.Average
	fmt.Fprintf(bw, "| **Average** | **%.3f** | **%.3f** | **%s** |\n\n", a.MSE, a.MaxAbsError, FormatSNR(a.SNRDB))
	fmt.Fprint(bw, "## Definitions\n\n")
	fmt.Fprint(bw, "- **MSE (L2 norm)**: Mean Squared Error - average of squared differences\n")
	fmt.Fprint(bw, "- **Max Abs Error (L∞ norm)**: Maximum absolute difference between samples\n")
	fmt.Fprint(bw, "- **SNR**: Signal-to-Noise Ratio in dB - 10 * log10(signal_power / noise_power)\n")
	return bw.Flush()
}

// FormatSNR prints a decibel value with two decimals, or ∞ / -∞.
func FormatSNR(db float64) string {
	switch {
	case math.IsInf(db, 1):
		return "∞"
	case math.IsInf(db, -1):
		return "-∞"
	}
	return fmt.Sprintf("%.2f", db)
}

// FromComparison converts a comparison to the Record that Write followed
// by Parse would produce, without the rounding.
func FromComparison(label string, cmp analysis.SignalComparison) Record {
	rec := Record{
		Label: label,
		Average: Row{
			MSE:         cmp.Average.MSE,
			MaxAbsError: cmp.Average.MaxAbsError,
			SNRDB:       cmp.Average.SNRDB,
		},
	}
	for _, ch := range cmp.Channels {
		rec.Channels = append(rec.Channels, ChannelRow{
			Channel:     ch.Channel,
			MSE:         ch.MSE,
			MaxAbsError: ch.MaxAbsError,
			SNRDB:       ch.SNRDB,
		})
	}
	return rec
}
