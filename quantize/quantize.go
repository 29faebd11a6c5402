// Package quantize simulates reducing 16-bit PCM to a lower bit depth.
package quantize

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-wavqa/pcm"
)

// ErrInvalidArgument reports a bit depth outside [MinBits, MaxBits].
var ErrInvalidArgument = errors.New("quantize: invalid argument")

const (
	MinBits = 1
	MaxBits = 16

	minValue = -32768.0
	maxValue = 32767.0
)

// Profile describes a target bit depth over the full 16-bit range.
type Profile struct {
	Bits   int
	Levels int
	Step   float64
}

// NewProfile returns the profile for bits in [MinBits, MaxBits].
func NewProfile(bits int) (Profile, error) {
	if bits < MinBits || bits > MaxBits {
		return Profile{}, fmt.Errorf("%w: bits must be in [%d, %d]: %d", ErrInvalidArgument, MinBits, MaxBits, bits)
	}
	levels := 1 << bits
	return Profile{
		Bits:   bits,
		Levels: levels,
		Step:   (maxValue - minValue) / float64(levels-1),
	}, nil
}

// Label returns the short name used in report file names, e.g. "8bit".
func (p Profile) Label() string { return fmt.Sprintf("%dbit", p.Bits) }

// CompressionRatio is the size of 16-bit samples relative to samples of
// p.Bits bits, headers excluded.
func (p Profile) CompressionRatio() float64 { return 16 / float64(p.Bits) }

// Level returns the index in [0, p.Levels) of the level nearest to x.
func Level(x int16, p Profile) int {
	level := math.Round((float64(x) - minValue) / p.Step)
	return int(math.Max(0, math.Min(level, float64(p.Levels-1))))
}

// Value returns the sample value of a level index.
func Value(level int, p Profile) int16 {
	return pcm.ClampInt16(minValue + float64(level)*p.Step)
}

// Sample maps x to the nearest of the profile's levels.
func Sample(x int16, p Profile) int16 { return Value(Level(x, p), p) }

// Requantize returns a new signal with every sample mapped through Sample.
func Requantize(sig *pcm.Signal, p Profile) *pcm.Signal {
	return sig.Map(func(x int16) int16 { return Sample(x, p) })
}

// DistinctValues counts the distinct sample values across all channels.
func DistinctValues(sig *pcm.Signal) int {
	var seen [65536]bool
	n := 0
	for c := 0; c < sig.NumChannels(); c++ {
		for _, v := range sig.Channel(c) {
			i := int(v) + 32768
			if !seen[i] {
				seen[i] = true
				n++
			}
		}
	}
	return n
}

// Variant is a requantized copy of a reference signal.
type Variant struct {
	Label   string
	Profile Profile
	Signal  *pcm.Signal
}

// Sweep requantizes sig at each bit depth, in the given order.
func Sweep(sig *pcm.Signal, bits ...int) ([]Variant, error) {
	out := make([]Variant, 0, len(bits))
	for _, b := range bits {
		p, err := NewProfile(b)
		if err != nil {
			return nil, err
		}
		out = append(out, Variant{Label: p.Label(), Profile: p, Signal: Requantize(sig, p)})
	}
	return out, nil
}
