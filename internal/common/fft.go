package common

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/mjibson/go-dsp/fft"
)

// RealFFT computes one-sided spectra of real frames of a fixed size.
// Power-of-two sizes go through an algo-fft plan; other sizes use go-dsp.
type RealFFT struct {
	n       int
	forward func(dst []complex128, src []float64)
}

// NewRealFFT prepares a transform for frames of n samples.
func NewRealFFT(n int) (*RealFFT, error) {
	if n < 2 {
		return nil, fmt.Errorf("fft size must be >= 2: %d", n)
	}
	r := &RealFFT{n: n, forward: dspForward}
	if IsPow2(n) {
		if plan, err := algofft.NewPlanReal64(n); err == nil {
			r.forward = func(dst []complex128, src []float64) { plan.Forward(dst, src) }
		}
	}
	return r, nil
}

func dspForward(dst []complex128, src []float64) {
	full := fft.FFTReal(src)
	copy(dst, full[:len(src)/2+1])
}

// Size returns the frame length.
func (r *RealFFT) Size() int { return r.n }

// Bins returns the one-sided spectrum length n/2+1.
func (r *RealFFT) Bins() int { return r.n/2 + 1 }

// Forward writes the n/2+1 bins of frame's spectrum into dst. frame must
// hold Size samples and dst at least Bins values.
func (r *RealFFT) Forward(dst []complex128, frame []float64) {
	r.forward(dst, frame)
}
