package analysis

import (
	"math"

	timestats "github.com/cwbudde/algo-dsp/stats/time"
)

// TimeDomainMetrics describes the level and shape of a mono signal.
type TimeDomainMetrics struct {
	RMS            float64 `json:"rms"`
	Peak           float64 `json:"peak"`
	CrestFactor    float64 `json:"crest_factor"`
	DynamicRangeDB float64 `json:"dynamic_range_db"`
	ZeroCrossings  int     `json:"zero_crossings"`
}

// TimeDomain measures x as given; callers normalize 16-bit input first.
// Silence has an infinite crest factor and dynamic range.
func TimeDomain(x []float64) TimeDomainMetrics {
	m := TimeDomainMetrics{
		RMS:           timestats.RMS(x),
		Peak:          timestats.Peak(x),
		ZeroCrossings: zeroCrossings(x),
	}
	if m.RMS == 0 {
		m.CrestFactor = math.Inf(1)
		m.DynamicRangeDB = math.Inf(1)
		return m
	}
	m.CrestFactor = m.Peak / m.RMS
	m.DynamicRangeDB = 20 * math.Log10(m.CrestFactor)
	return m
}

// zeroCrossings counts sign changes between neighbours. Zero counts as
// non-negative, so -1 -> 0 is a crossing and 0 -> 1 is not.
func zeroCrossings(x []float64) int {
	n := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			n++
		}
	}
	return n
}
