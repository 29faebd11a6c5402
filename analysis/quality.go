// Package analysis measures how far a test signal is from its reference.
package analysis

import (
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-wavqa/pcm"
)

// DefaultPeak is the full-scale 16-bit amplitude used for PSNR.
const DefaultPeak = 32767.0

// QualityMetrics holds objective distortion measurements. SNR and PSNR may
// be +Inf (perfect reconstruction) or -Inf (silent reference, noisy test).
type QualityMetrics struct {
	MSE         float64 `json:"mse"`
	MaxAbsError float64 `json:"max_abs_error"`
	SNRDB       float64 `json:"snr_db"`
	PSNRDB      float64 `json:"psnr_db"`
}

// ChannelMetrics are the metrics of one channel. Channel counts from 1.
type ChannelMetrics struct {
	Channel int `json:"channel"`
	QualityMetrics
}

// SignalComparison holds per-channel metrics and the pooled average over
// all samples of all channels.
type SignalComparison struct {
	Channels []ChannelMetrics `json:"channels"`
	Average  QualityMetrics   `json:"average"`
}

// accumulator collects error statistics in float64.
type accumulator struct {
	n        int
	sumErrSq float64
	sumRefSq float64
	maxAbs   float64
}

func (a *accumulator) add(reference, test []int16) {
	for i := range reference {
		r := float64(reference[i])
		d := r - float64(test[i])
		a.sumErrSq += d * d
		a.sumRefSq += r * r
		if ad := math.Abs(d); ad > a.maxAbs {
			a.maxAbs = ad
		}
	}
	a.n += len(reference)
}

func (a *accumulator) merge(b accumulator) {
	a.n += b.n
	a.sumErrSq += b.sumErrSq
	a.sumRefSq += b.sumRefSq
	a.maxAbs = math.Max(a.maxAbs, b.maxAbs)
}

func (a accumulator) metrics(peak float64) QualityMetrics {
	m := QualityMetrics{MaxAbsError: a.maxAbs}
	if a.n == 0 {
		return m
	}
	m.MSE = a.sumErrSq / float64(a.n)
	if m.MSE == 0 {
		m.SNRDB = math.Inf(1)
		m.PSNRDB = math.Inf(1)
		return m
	}
	// A silent reference gives a zero ratio and so -Inf.
	m.SNRDB = dspcore.LinearPowerToDB(a.sumRefSq / float64(a.n) / m.MSE)
	m.PSNRDB = dspcore.LinearToDB(peak / math.Sqrt(m.MSE))
	return m
}

// Compare computes the quality metrics of test against reference with the
// 16-bit full-scale peak.
func Compare(reference, test []int16) (QualityMetrics, error) {
	return CompareWithPeak(reference, test, DefaultPeak)
}

// CompareWithPeak is Compare with an explicit PSNR peak amplitude.
func CompareWithPeak(reference, test []int16, peak float64) (QualityMetrics, error) {
	if len(reference) != len(test) {
		return QualityMetrics{}, fmt.Errorf("%w: reference has %d samples, test has %d", ErrLengthMismatch, len(reference), len(test))
	}
	if len(reference) == 0 {
		return QualityMetrics{}, fmt.Errorf("%w: empty input", ErrInvalidArgument)
	}
	if !(peak > 0) {
		return QualityMetrics{}, fmt.Errorf("%w: peak must be > 0: %g", ErrInvalidArgument, peak)
	}
	var acc accumulator
	acc.add(reference, test)
	return acc.metrics(peak), nil
}

// CompareSignals compares two signals channel by channel.
func CompareSignals(reference, test *pcm.Signal) (SignalComparison, error) {
	if reference.NumChannels() != test.NumChannels() {
		return SignalComparison{}, fmt.Errorf("%w: reference has %d channels, test has %d",
			ErrLengthMismatch, reference.NumChannels(), test.NumChannels())
	}
	if reference.Len() != test.Len() {
		return SignalComparison{}, fmt.Errorf("%w: reference has %d frames, test has %d",
			ErrLengthMismatch, reference.Len(), test.Len())
	}
	if reference.Len() == 0 {
		return SignalComparison{}, fmt.Errorf("%w: empty input", ErrInvalidArgument)
	}

	out := SignalComparison{Channels: make([]ChannelMetrics, reference.NumChannels())}
	var total accumulator
	for c := range out.Channels {
		var acc accumulator
		acc.add(reference.Channel(c), test.Channel(c))
		out.Channels[c] = ChannelMetrics{Channel: c + 1, QualityMetrics: acc.metrics(DefaultPeak)}
		total.merge(acc)
	}
	out.Average = total.metrics(DefaultPeak)
	return out, nil
}
