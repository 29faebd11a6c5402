package spectral

import (
	"fmt"
	"math"
)

// Band is a frequency range in Hz, inclusive at both ends.
type Band struct {
	Name string
	LoHz float64
	HiHz float64
}

// DefaultBands splits the audible range into seven bands.
func DefaultBands() []Band {
	return []Band{
		{"sub-bass (20-100Hz)", 20, 100},
		{"bass (100-300Hz)", 100, 300},
		{"low-mid (300-1kHz)", 300, 1000},
		{"mid (1-3kHz)", 1000, 3000},
		{"hi-mid (3-6kHz)", 3000, 6000},
		{"high (6-12kHz)", 6000, 12000},
		{"air (12-20kHz)", 12000, 20000},
	}
}

// TimeWindow is a span of a signal in seconds.
type TimeWindow struct {
	Name     string
	StartSec float64
	EndSec   float64
}

// DefaultTimeWindows follows the envelope of a struck or plucked sound.
func DefaultTimeWindows() []TimeWindow {
	return []TimeWindow{
		{"attack (0-20ms)", 0, 0.02},
		{"early (20-100ms)", 0.02, 0.1},
		{"sustain (100-500ms)", 0.1, 0.5},
		{"decay (0.5-2s)", 0.5, 2},
		{"late (2-4s)", 2, 4},
	}
}

// BandDiff compares one band of two spectra. RMSEDB is the RMS of the
// per-bin dB difference; LevelDiffDB is candidate minus reference band
// power.
type BandDiff struct {
	Band        Band    `json:"band"`
	Bins        int     `json:"bins"`
	RMSEDB      float64 `json:"rmse_db"`
	RefDB       float64 `json:"ref_db"`
	CandDB      float64 `json:"cand_db"`
	LevelDiffDB float64 `json:"level_diff_db"`
}

// CompareBands compares the averaged spectra of two results computed with
// the same sample rate and window size.
func CompareBands(ref, cand *Result, bands []Band) ([]BandDiff, error) {
	if ref.SampleRate != cand.SampleRate || ref.WindowSize != cand.WindowSize {
		return nil, fmt.Errorf("%w: frequency axes differ: %d Hz/%d vs %d Hz/%d",
			ErrInvalidArgument, ref.SampleRate, ref.WindowSize, cand.SampleRate, cand.WindowSize)
	}
	return CompareSpectra(ref.AveragedSpectrum, cand.AveragedSpectrum, ref.BinHz(), bands)
}

// CompareSpectra compares two one-sided magnitude spectra sharing a bin
// spacing of binHz. Bands with no bins below Nyquist are skipped.
func CompareSpectra(ref, cand []float64, binHz float64, bands []Band) ([]BandDiff, error) {
	if len(ref) != len(cand) {
		return nil, fmt.Errorf("%w: spectra have %d and %d bins", ErrInvalidArgument, len(ref), len(cand))
	}
	if !(binHz > 0) {
		return nil, fmt.Errorf("%w: bin spacing must be > 0: %g", ErrInvalidArgument, binHz)
	}
	nBins := len(ref)
	out := make([]BandDiff, 0, len(bands))
	for _, b := range bands {
		loK := int(math.Ceil(b.LoHz / binHz))
		hiK := int(math.Floor(b.HiHz / binHz))
		if loK < 1 {
			loK = 1
		}
		if hiK >= nBins {
			hiK = nBins - 1
		}
		if loK > hiK {
			continue
		}

		var sumSq, refPow, candPow float64
		cnt := 0
		for k := loK; k <= hiK; k++ {
			d := floorDB(ref[k]) - floorDB(cand[k])
			sumSq += d * d
			refPow += ref[k] * ref[k]
			candPow += cand[k] * cand[k]
			cnt++
		}
		refDB := 10 * math.Log10(math.Max(refPow/float64(cnt), 1e-24))
		candDB := 10 * math.Log10(math.Max(candPow/float64(cnt), 1e-24))
		out = append(out, BandDiff{
			Band:        b,
			Bins:        cnt,
			RMSEDB:      math.Sqrt(sumSq / float64(cnt)),
			RefDB:       refDB,
			CandDB:      candDB,
			LevelDiffDB: candDB - refDB,
		})
	}
	return out, nil
}

func floorDB(v float64) float64 {
	return 20 * math.Log10(math.Max(v, 1e-12))
}
