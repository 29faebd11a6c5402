// Package spectral computes short-time magnitude spectra of mono signals.
package spectral

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-dsp/stats/frequency"

	"github.com/cwbudde/algo-wavqa/internal/common"
)

// ErrInvalidArgument reports an unusable window size, overlap or rate.
var ErrInvalidArgument = errors.New("spectral: invalid argument")

// DefaultTukeyAlpha is the taper fraction of the default analysis window.
const DefaultTukeyAlpha = 0.25

// Result is a magnitude spectrogram. Magnitude is indexed [freq][time].
type Result struct {
	SampleRate int
	WindowSize int
	Hop        int

	Frequencies      []float64
	Times            []float64
	Magnitude        [][]float64
	AveragedSpectrum []float64
}

type config struct {
	windowType window.Type
	alpha      float64
	overlap    int
	detrend    bool
}

// Option configures Spectrogram.
type Option func(*config)

// WithWindow selects the analysis window. The default is a periodic Tukey.
func WithWindow(t window.Type) Option {
	return func(c *config) { c.windowType = t }
}

// WithTukeyAlpha sets the Tukey taper fraction in [0, 1].
func WithTukeyAlpha(alpha float64) Option {
	return func(c *config) { c.alpha = alpha }
}

// WithOverlap sets the number of samples shared by neighbouring segments.
// The default is windowSize/8.
func WithOverlap(n int) Option {
	return func(c *config) { c.overlap = n }
}

// WithDetrend subtracts each segment's mean before windowing.
func WithDetrend(on bool) Option {
	return func(c *config) { c.detrend = on }
}

// Spectrogram splits x into windowed segments of windowSize samples and
// returns their one-sided amplitude spectra. Magnitudes are scaled by the
// window sum so that a bin-centred sine of amplitude A reads about A.
// Segment times are the segment centres in seconds. A window of one
// sample is rectangular and yields a single DC bin per segment.
func Spectrogram(x []float64, sampleRate, windowSize int, opts ...Option) (*Result, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %d", ErrInvalidArgument, sampleRate)
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("%w: window size must be > 0: %d", ErrInvalidArgument, windowSize)
	}
	if windowSize > len(x) {
		return nil, fmt.Errorf("%w: window size %d exceeds signal length %d", ErrInvalidArgument, windowSize, len(x))
	}

	cfg := config{
		windowType: window.TypeTukey,
		alpha:      DefaultTukeyAlpha,
		overlap:    windowSize / 8,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.overlap < 0 || cfg.overlap >= windowSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d): %d", ErrInvalidArgument, windowSize, cfg.overlap)
	}

	w, err := analysisWindow(cfg, windowSize)
	if err != nil {
		return nil, err
	}
	var wsum float64
	for _, v := range w {
		wsum += v
	}
	if wsum <= 0 {
		return nil, fmt.Errorf("%w: window has no gain", ErrInvalidArgument)
	}

	bins := windowSize/2 + 1
	forward := func(dst []complex128, src []float64) { dst[0] = complex(src[0], 0) }
	if windowSize > 1 {
		tr, err := common.NewRealFFT(windowSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		forward = tr.Forward
	}

	hop := windowSize - cfg.overlap
	frames := 1 + (len(x)-windowSize)/hop

	res := &Result{
		SampleRate:       sampleRate,
		WindowSize:       windowSize,
		Hop:              hop,
		Frequencies:      make([]float64, bins),
		Times:            make([]float64, frames),
		Magnitude:        make([][]float64, bins),
		AveragedSpectrum: make([]float64, bins),
	}
	fs := float64(sampleRate)
	for k := range res.Frequencies {
		res.Frequencies[k] = float64(k) * fs / float64(windowSize)
		res.Magnitude[k] = make([]float64, frames)
	}

	buf := make([]float64, windowSize)
	spec := make([]complex128, bins)
	for f := 0; f < frames; f++ {
		start := f * hop
		seg := x[start : start+windowSize]
		mean := 0.0
		if cfg.detrend {
			for _, v := range seg {
				mean += v
			}
			mean /= float64(windowSize)
		}
		for i, v := range seg {
			buf[i] = (v - mean) * w[i]
		}
		forward(spec, buf)
		for k, m := range spectrum.Magnitude(spec) {
			scale := 2.0
			if k == 0 || (windowSize%2 == 0 && k == bins-1) {
				scale = 1
			}
			res.Magnitude[k][f] = scale * m / wsum
		}
		res.Times[f] = (float64(start) + float64(windowSize)/2) / fs
	}

	for k, row := range res.Magnitude {
		var sum float64
		for _, v := range row {
			sum += v
		}
		res.AveragedSpectrum[k] = sum / float64(frames)
	}
	return res, nil
}

func analysisWindow(cfg config, n int) ([]float64, error) {
	if n == 1 {
		return []float64{1}, nil
	}
	if cfg.windowType == window.TypeTukey {
		w, err := window.Tukey(n, cfg.alpha, window.WithPeriodic())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return w, nil
	}
	w := window.Generate(cfg.windowType, n, window.WithPeriodic())
	if len(w) != n {
		return nil, fmt.Errorf("%w: window type %d", ErrInvalidArgument, cfg.windowType)
	}
	return w, nil
}

// BinHz returns the spacing of the frequency axis.
func (r *Result) BinHz() float64 {
	return float64(r.SampleRate) / float64(r.WindowSize)
}

// AverageBetween averages the segments whose centre lies in
// [startSec, endSec). It returns nil when no segment qualifies.
func (r *Result) AverageBetween(startSec, endSec float64) []float64 {
	var idx []int
	for i, t := range r.Times {
		if t >= startSec && t < endSec {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil
	}
	out := make([]float64, len(r.Magnitude))
	for k, row := range r.Magnitude {
		var sum float64
		for _, i := range idx {
			sum += row[i]
		}
		out[k] = sum / float64(len(idx))
	}
	return out
}

// Peak returns the frequency and magnitude of the strongest bin of the
// averaged spectrum, ignoring DC.
func (r *Result) Peak() (freq, mag float64) {
	for k := 1; k < len(r.AveragedSpectrum); k++ {
		if v := r.AveragedSpectrum[k]; v > mag {
			freq, mag = r.Frequencies[k], v
		}
	}
	return freq, mag
}

// Summary describes the averaged spectrum (centroid, flatness, rolloff and
// so on).
func (r *Result) Summary() frequency.Stats {
	return frequency.Calculate(r.AveragedSpectrum, float64(r.SampleRate))
}

// ToDB converts magnitudes to decibels with a 1e-12 floor offset.
func ToDB(m []float64) []float64 {
	out := make([]float64, len(m))
	for i, v := range m {
		out[i] = 20 * math.Log10(v+1e-12)
	}
	return out
}
