package session

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-wavqa/analysis"
	"github.com/cwbudde/algo-wavqa/histogram"
	"github.com/cwbudde/algo-wavqa/pcm"
	"github.com/cwbudde/algo-wavqa/quantize"
	"github.com/cwbudde/algo-wavqa/spectral"
)

// Histograms builds one histogram per requested channel view of name.
func (s *Session) Histograms(name string, views []pcm.Derivation, binWidth int) (map[pcm.Derivation]*histogram.Histogram, error) {
	sig, err := s.Signal(name)
	if err != nil {
		return nil, err
	}
	out := make(map[pcm.Derivation]*histogram.Histogram, len(views))
	for _, d := range views {
		h, err := histogram.BuildDerivation(sig, d, binWidth)
		if err != nil {
			return nil, fmt.Errorf("%s %s histogram: %w", name, d, err)
		}
		out[d] = h
	}
	return out, nil
}

// SweepResult is the outcome of one bit depth in a quantization sweep.
type SweepResult struct {
	Profile    quantize.Profile
	Signal     *pcm.Signal
	Distinct   int
	Comparison analysis.SignalComparison
	// CompressionRatio is 16 bits over the profile's bits per sample.
	CompressionRatio float64
	// EncodedBytes is the size of the signal packed with quantize.Encode.
	EncodedBytes int64
}

// QuantizationSweep requantizes the reference at each bit depth and
// compares each result with it. Results are keyed by profile label
// ("8bit"). Depths run in parallel.
func (s *Session) QuantizationSweep(reference string, bits ...int) (map[string]SweepResult, error) {
	ref, err := s.Signal(reference)
	if err != nil {
		return nil, err
	}
	profiles := make([]quantize.Profile, 0, len(bits))
	for _, b := range bits {
		p, err := quantize.NewProfile(b)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	var mu sync.Mutex
	out := make(map[string]SweepResult, len(profiles))
	wp := s.pool()
	for _, p := range profiles {
		p := p
		wp.Go(func() error {
			q := quantize.Requantize(ref, p)
			cmp, err := analysis.CompareSignals(ref, q)
			if err != nil {
				return fmt.Errorf("%s: %w", p.Label(), err)
			}
			r := SweepResult{
				Profile:          p,
				Signal:           q,
				Distinct:         quantize.DistinctValues(q),
				Comparison:       cmp,
				CompressionRatio: p.CompressionRatio(),
				EncodedBytes:     quantize.EncodedSize(ref.Len(), ref.NumChannels(), p),
			}
			mu.Lock()
			out[p.Label()] = r
			mu.Unlock()
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// SignalProfile describes one signal on its own.
type SignalProfile struct {
	SampleRate int
	TimeDomain analysis.TimeDomainMetrics
	Spectrum   *spectral.Result
}

// EffectResult compares one effect-processed variant with the reference.
type EffectResult struct {
	SignalProfile
	Distance analysis.DistanceMetrics
	Bands    []spectral.BandDiff
}

// EffectsReport holds the reference profile and every variant result.
type EffectsReport struct {
	Reference SignalProfile
	Variants  map[string]EffectResult
}

// EffectsAnalysis profiles the reference and each variant as mono mixes
// normalized to [-1, 1). Variants at another sample rate are resampled to
// the reference rate first. Variants that fail are reported in the error
// and left out of the report.
func (s *Session) EffectsAnalysis(reference string, variants []string, windowSize int) (*EffectsReport, error) {
	ref, err := s.Signal(reference)
	if err != nil {
		return nil, err
	}
	refMono := ref.Mono()
	refProfile, err := profile(refMono, ref.SampleRate(), windowSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", reference, err)
	}

	rep := &EffectsReport{Reference: refProfile, Variants: make(map[string]EffectResult, len(variants))}
	var mu sync.Mutex
	wp := s.pool()
	for _, name := range variants {
		name := name
		wp.Go(func() error {
			v, err := s.Signal(name)
			if err != nil {
				return err
			}
			mono, err := pcm.Resample(v.Mono(), v.SampleRate(), ref.SampleRate())
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			p, err := profile(mono, ref.SampleRate(), windowSize)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			bands, err := spectral.CompareBands(refProfile.Spectrum, p.Spectrum, spectral.DefaultBands())
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			r := EffectResult{
				SignalProfile: p,
				Distance:      analysis.Distance(refMono, mono, ref.SampleRate()),
				Bands:         bands,
			}
			mu.Lock()
			rep.Variants[name] = r
			mu.Unlock()
			return nil
		})
	}
	return rep, wp.Wait()
}

func profile(mono []float64, sampleRate, windowSize int) (SignalProfile, error) {
	spec, err := spectral.Spectrogram(mono, sampleRate, windowSize)
	if err != nil {
		return SignalProfile{}, err
	}
	return SignalProfile{
		SampleRate: sampleRate,
		TimeDomain: analysis.TimeDomain(mono),
		Spectrum:   spec,
	}, nil
}
