package pcm

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the length of the canonical RIFF/WAVE header for 16-bit PCM.
const HeaderSize = 44

// Decode skips the first HeaderSize bytes of raw and decodes the remainder
// as little-endian signed 16-bit samples. The header is not inspected.
func Decode(raw []byte) ([]int16, error) {
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte header", ErrFormat, len(raw), HeaderSize)
	}
	data := raw[HeaderSize:]
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d data bytes do not form whole 16-bit samples", ErrFormat, len(data))
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out, nil
}

// Deinterleave splits frame-interleaved samples into a Signal.
func Deinterleave(samples []int16, channels int, sampleRate int) (*Signal, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: channel count must be >= 1: %d", ErrInvalidArgument, channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples do not form whole %d-channel frames", ErrFormat, len(samples), channels)
	}
	frames := len(samples) / channels
	out := make([][]int16, channels)
	for c := range out {
		out[c] = make([]int16, frames)
	}
	for i, v := range samples {
		out[i%channels][i/channels] = v
	}
	return &Signal{sampleRate: sampleRate, channels: out}, nil
}

// DecodeSignal decodes raw with the fixed header offset and reshapes it
// using a channel count and sample rate known out of band.
func DecodeSignal(raw []byte, channels int, sampleRate int) (*Signal, error) {
	samples, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Deinterleave(samples, channels, sampleRate)
}
