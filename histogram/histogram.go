// Package histogram counts sample values into fixed-width bins.
package histogram

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-wavqa/pcm"
)

// ErrInvalidArgument reports a non-positive bin width.
var ErrInvalidArgument = errors.New("histogram: invalid argument")

// Bin is a single histogram bucket. Value is the lower edge of the bin.
type Bin struct {
	Value int
	Count int
}

// Histogram maps binned sample values to counts. Bins keep the order in
// which their values were first seen.
type Histogram struct {
	title    string
	binWidth int
	bins     []Bin
	index    map[int]int
	total    int
}

func newHistogram(binWidth int) *Histogram {
	return &Histogram{
		title:    "Histogram",
		binWidth: binWidth,
		index:    make(map[int]int),
	}
}

// Build counts samples in a single pass. Value v lands in bin
// floor(v/binWidth)*binWidth.
func Build(samples []int16, binWidth int) (*Histogram, error) {
	if binWidth <= 0 {
		return nil, fmt.Errorf("%w: bin width must be >= 1: %d", ErrInvalidArgument, binWidth)
	}
	h := newHistogram(binWidth)
	for _, s := range samples {
		h.add(BinOf(int(s), binWidth), 1)
	}
	return h, nil
}

// BuildDerivation derives the requested mono view of sig and counts it.
func BuildDerivation(sig *pcm.Signal, d pcm.Derivation, binWidth int) (*Histogram, error) {
	samples, err := sig.Derive(d)
	if err != nil {
		return nil, err
	}
	h, err := Build(samples, binWidth)
	if err != nil {
		return nil, err
	}
	h.title = titleFor(d)
	return h, nil
}

func titleFor(d pcm.Derivation) string {
	switch d {
	case pcm.Mid:
		return "MID channel histogram ((L+R)/2)"
	case pcm.Side:
		return "SIDE channel histogram ((L-R)/2)"
	case pcm.Left:
		return "LEFT channel histogram"
	case pcm.Right:
		return "RIGHT channel histogram"
	}
	return "Histogram"
}

// BinOf returns the lower edge of the bin holding v, rounding toward
// negative infinity.
func BinOf(v, binWidth int) int {
	q := v / binWidth
	if v%binWidth != 0 && v < 0 {
		q--
	}
	return q * binWidth
}

func (h *Histogram) add(value, count int) {
	if i, ok := h.index[value]; ok {
		h.bins[i].Count += count
	} else {
		h.index[value] = len(h.bins)
		h.bins = append(h.bins, Bin{Value: value, Count: count})
	}
	h.total += count
}

// Title is the header line used by WriteTo.
func (h *Histogram) Title() string { return h.title }

// BinWidth returns the width the histogram was built with.
func (h *Histogram) BinWidth() int { return h.binWidth }

// Total returns the number of counted samples.
func (h *Histogram) Total() int { return h.total }

// Len returns the number of non-empty bins.
func (h *Histogram) Len() int { return len(h.bins) }

// Count returns the count of the bin holding v.
func (h *Histogram) Count(v int) int {
	i, ok := h.index[BinOf(v, h.binWidth)]
	if !ok {
		return 0
	}
	return h.bins[i].Count
}

// Bins returns a copy of the bins in first-seen order.
func (h *Histogram) Bins() []Bin {
	return append([]Bin(nil), h.bins...)
}

// Sorted returns a copy of the bins ordered by value.
func (h *Histogram) Sorted() []Bin {
	out := h.Bins()
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Distinct returns the number of non-empty bins; with bin width 1 this is
// the number of distinct sample values.
func (h *Histogram) Distinct() int { return len(h.bins) }

// Mode returns the most populated bin. Ties go to the bin seen first.
func (h *Histogram) Mode() (Bin, bool) {
	if len(h.bins) == 0 {
		return Bin{}, false
	}
	best := h.bins[0]
	for _, b := range h.bins[1:] {
		if b.Count > best.Count {
			best = b
		}
	}
	return best, true
}
