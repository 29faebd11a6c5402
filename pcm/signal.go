// Package pcm holds the 16-bit PCM signal model and the readers and writers
// that produce it.
package pcm

import (
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// FullScale is the normalization divisor for 16-bit samples.
const FullScale = 32768.0

// Signal is an immutable multi-channel 16-bit PCM signal. All channels have
// the same length.
type Signal struct {
	sampleRate int
	channels   [][]int16
}

// NewSignal copies channels into a new Signal.
func NewSignal(sampleRate int, channels [][]int16) (*Signal, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: signal needs at least one channel", ErrInvalidArgument)
	}
	if sampleRate < 0 {
		return nil, fmt.Errorf("%w: sample rate must be >= 0: %d", ErrInvalidArgument, sampleRate)
	}
	n := len(channels[0])
	out := make([][]int16, len(channels))
	for c, ch := range channels {
		if len(ch) != n {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrInvalidArgument, c, len(ch), n)
		}
		out[c] = append([]int16(nil), ch...)
	}
	return &Signal{sampleRate: sampleRate, channels: out}, nil
}

// NewMono wraps a single channel.
func NewMono(sampleRate int, samples []int16) *Signal {
	return &Signal{
		sampleRate: sampleRate,
		channels:   [][]int16{append([]int16(nil), samples...)},
	}
}

// SampleRate returns the sample rate in Hz. Zero means unknown.
func (s *Signal) SampleRate() int { return s.sampleRate }

// NumChannels returns the channel count.
func (s *Signal) NumChannels() int { return len(s.channels) }

// Len returns the number of frames (samples per channel).
func (s *Signal) Len() int {
	if len(s.channels) == 0 {
		return 0
	}
	return len(s.channels[0])
}

// Duration returns the signal length in seconds, or 0 if the rate is unknown.
func (s *Signal) Duration() float64 {
	if s.sampleRate <= 0 {
		return 0
	}
	return float64(s.Len()) / float64(s.sampleRate)
}

// Channel returns a copy of channel c.
func (s *Signal) Channel(c int) []int16 {
	if c < 0 || c >= len(s.channels) {
		return nil
	}
	return append([]int16(nil), s.channels[c]...)
}

// Interleaved returns all samples frame by frame.
func (s *Signal) Interleaved() []int16 {
	nc := len(s.channels)
	out := make([]int16, s.Len()*nc)
	for c, ch := range s.channels {
		for i, v := range ch {
			out[i*nc+c] = v
		}
	}
	return out
}

// Map returns a new Signal with f applied to every sample. The receiver is
// left untouched.
func (s *Signal) Map(f func(int16) int16) *Signal {
	out := make([][]int16, len(s.channels))
	for c, ch := range s.channels {
		dst := make([]int16, len(ch))
		for i, v := range ch {
			dst[i] = f(v)
		}
		out[c] = dst
	}
	return &Signal{sampleRate: s.sampleRate, channels: out}
}

// Mono averages the channels and normalizes the result to [-1, 1).
func (s *Signal) Mono() []float64 {
	n := s.Len()
	nc := float64(len(s.channels))
	out := make([]float64, n)
	for _, ch := range s.channels {
		for i, v := range ch {
			out[i] += float64(v) / FullScale
		}
	}
	for i := range out {
		out[i] /= nc
	}
	return out
}

// Normalize converts 16-bit samples to floats in [-1, 1).
func Normalize(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(v) / FullScale
	}
	return out
}

// ClampInt16 rounds v to the nearest integer and saturates it to the 16-bit range.
func ClampInt16(v float64) int16 {
	return int16(dspcore.Clamp(math.Round(v), math.MinInt16, math.MaxInt16))
}
