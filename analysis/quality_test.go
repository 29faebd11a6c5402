package analysis

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-wavqa/pcm"
	"github.com/cwbudde/algo-wavqa/quantize"
)

func musicLike(n int, seed int64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / 44100
		v := 9000*math.Sin(2*math.Pi*220*t) + 4000*math.Sin(2*math.Pi*1375*t) + 800*rng.NormFloat64()
		out[i] = pcm.ClampInt16(v)
	}
	return out
}

func TestComparePerfectReconstruction(t *testing.T) {
	s := musicLike(4096, 1)
	m, err := Compare(s, s)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if m.MSE != 0 || m.MaxAbsError != 0 {
		t.Fatalf("Compare(S,S) = %+v, want zero error", m)
	}
	if !math.IsInf(m.SNRDB, 1) || !math.IsInf(m.PSNRDB, 1) {
		t.Fatalf("Compare(S,S) snr=%v psnr=%v, want +Inf", m.SNRDB, m.PSNRDB)
	}
}

func TestCompareSilence(t *testing.T) {
	silent := make([]int16, 16)
	m, err := Compare(silent, silent)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !math.IsInf(m.SNRDB, 1) {
		t.Fatalf("silence vs silence snr = %v, want +Inf", m.SNRDB)
	}

	noisy := make([]int16, 16)
	noisy[3] = 4
	m, err = Compare(silent, noisy)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !math.IsInf(m.SNRDB, -1) {
		t.Fatalf("silence vs noise snr = %v, want -Inf", m.SNRDB)
	}
	if m.MSE != 1 || m.MaxAbsError != 4 {
		t.Fatalf("silence vs noise = %+v, want mse 1 and max error 4", m)
	}
	wantPSNR := 20 * math.Log10(DefaultPeak)
	if math.Abs(m.PSNRDB-wantPSNR) > 1e-9 {
		t.Fatalf("psnr = %f, want %f", m.PSNRDB, wantPSNR)
	}
}

func TestCompareKnownValues(t *testing.T) {
	ref := []int16{100, -100, 100, -100}
	test := []int16{90, -100, 110, -100}
	m, err := CompareWithPeak(ref, test, 100)
	if err != nil {
		t.Fatalf("CompareWithPeak: %v", err)
	}
	if m.MSE != 50 || m.MaxAbsError != 10 {
		t.Fatalf("CompareWithPeak() = %+v", m)
	}
	if want := 10 * math.Log10(10000.0/50); math.Abs(m.SNRDB-want) > 1e-9 {
		t.Fatalf("snr = %f, want %f", m.SNRDB, want)
	}
	if want := 20 * math.Log10(100/math.Sqrt(50)); math.Abs(m.PSNRDB-want) > 1e-9 {
		t.Fatalf("psnr = %f, want %f", m.PSNRDB, want)
	}
}

func TestCompareErrors(t *testing.T) {
	if _, err := Compare([]int16{1, 2}, []int16{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("Compare() error = %v, want ErrLengthMismatch", err)
	}
	if _, err := Compare(nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Compare(nil) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := CompareWithPeak([]int16{1}, []int16{1}, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("CompareWithPeak(peak=0) error = %v, want ErrInvalidArgument", err)
	}
}

func TestQuantizationDistortionIsMonotonic(t *testing.T) {
	sig, err := pcm.NewSignal(44100, [][]int16{musicLike(8192, 2), musicLike(8192, 3)})
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	variants, err := quantize.Sweep(sig, 16, 8, 4, 2, 1)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	var prev QualityMetrics
	for i, v := range variants {
		cmp, err := CompareSignals(sig, v.Signal)
		if err != nil {
			t.Fatalf("%s: CompareSignals: %v", v.Label, err)
		}
		m := cmp.Average
		if i > 0 {
			if m.MSE < prev.MSE || m.MaxAbsError < prev.MaxAbsError {
				t.Fatalf("%s: mse %f / max %f decreased from %f / %f", v.Label, m.MSE, m.MaxAbsError, prev.MSE, prev.MaxAbsError)
			}
			if m.SNRDB > prev.SNRDB || m.PSNRDB > prev.PSNRDB {
				t.Fatalf("%s: snr %f / psnr %f increased from %f / %f", v.Label, m.SNRDB, m.PSNRDB, prev.SNRDB, prev.PSNRDB)
			}
		}
		prev = m
	}
}

func TestCompareSignalsPoolsAverage(t *testing.T) {
	ref, _ := pcm.NewSignal(8000, [][]int16{{10, 10}, {20, 20}})
	test, _ := pcm.NewSignal(8000, [][]int16{{10, 10}, {16, 20}})
	cmp, err := CompareSignals(ref, test)
	if err != nil {
		t.Fatalf("CompareSignals: %v", err)
	}
	if len(cmp.Channels) != 2 || cmp.Channels[0].Channel != 1 || cmp.Channels[1].Channel != 2 {
		t.Fatalf("unexpected channels %+v", cmp.Channels)
	}
	if !math.IsInf(cmp.Channels[0].SNRDB, 1) {
		t.Fatalf("channel 1 snr = %v, want +Inf", cmp.Channels[0].SNRDB)
	}
	if cmp.Channels[1].MSE != 8 {
		t.Fatalf("channel 2 mse = %f, want 8", cmp.Channels[1].MSE)
	}
	// 16 squared error over 4 samples, signal power (100+100+400+400)/4.
	if cmp.Average.MSE != 4 || cmp.Average.MaxAbsError != 4 {
		t.Fatalf("average = %+v", cmp.Average)
	}
	if want := 10 * math.Log10(250.0/4); math.Abs(cmp.Average.SNRDB-want) > 1e-9 {
		t.Fatalf("average snr = %f, want %f", cmp.Average.SNRDB, want)
	}
}

func TestCompareSignalsShapeMismatch(t *testing.T) {
	stereo, _ := pcm.NewSignal(8000, [][]int16{{1, 2}, {3, 4}})
	mono := pcm.NewMono(8000, []int16{1, 2})
	short, _ := pcm.NewSignal(8000, [][]int16{{1}, {3}})
	if _, err := CompareSignals(stereo, mono); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("channel mismatch error = %v, want ErrLengthMismatch", err)
	}
	if _, err := CompareSignals(stereo, short); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("length mismatch error = %v, want ErrLengthMismatch", err)
	}
}

func BenchmarkCompare(b *testing.B) {
	ref := musicLike(44100, 4)
	p, _ := quantize.NewProfile(8)
	test := make([]int16, len(ref))
	for i, v := range ref {
		test[i] = quantize.Sample(v, p)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Compare(ref, test)
	}
}
