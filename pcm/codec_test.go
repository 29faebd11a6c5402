package pcm

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeByteParity(t *testing.T) {
	raw := make([]byte, HeaderSize+4)
	copy(raw[HeaderSize:], []byte{0x01, 0x00, 0xFF, 0xFF})

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff([]int16{1, -1}, got); diff != "" {
		t.Fatalf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsOddDataLength(t *testing.T) {
	raw := make([]byte, HeaderSize+3)
	if _, err := Decode(raw); !errors.Is(err, ErrFormat) {
		t.Fatalf("Decode() error = %v, want ErrFormat", err)
	}
}

func TestDecodeRejectsShortHeader(t *testing.T) {
	if _, err := Decode(make([]byte, 10)); !errors.Is(err, ErrFormat) {
		t.Fatalf("Decode() error = %v, want ErrFormat", err)
	}
}

func TestDecodeHeaderOnlyIsEmpty(t *testing.T) {
	got, err := Decode(make([]byte, HeaderSize))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(Decode()) = %d, want 0", len(got))
	}
}

func TestDeinterleave(t *testing.T) {
	s, err := Deinterleave([]int16{1, -1, 2, -2, 3, -3}, 2, 8000)
	if err != nil {
		t.Fatalf("Deinterleave: %v", err)
	}
	if s.NumChannels() != 2 || s.Len() != 3 || s.SampleRate() != 8000 {
		t.Fatalf("unexpected shape: channels=%d len=%d rate=%d", s.NumChannels(), s.Len(), s.SampleRate())
	}
	if diff := cmp.Diff([]int16{1, 2, 3}, s.Channel(0)); diff != "" {
		t.Fatalf("left mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int16{-1, -2, -3}, s.Channel(1)); diff != "" {
		t.Fatalf("right mismatch (-want +got):\n%s", diff)
	}
}

func TestDeinterleaveErrors(t *testing.T) {
	if _, err := Deinterleave([]int16{1, 2, 3}, 2, 0); !errors.Is(err, ErrFormat) {
		t.Fatalf("partial frame error = %v, want ErrFormat", err)
	}
	if _, err := Deinterleave([]int16{1, 2}, 0, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero channels error = %v, want ErrInvalidArgument", err)
	}
}

// encodeCanonical lays s out as a 44 byte RIFF header followed by
// interleaved little-endian samples.
func encodeCanonical(s *Signal) []byte {
	nc := s.NumChannels()
	dataLen := s.Len() * nc * 2
	out := make([]byte, HeaderSize+dataLen)

	le := binary.LittleEndian
	copy(out[0:], "RIFF")
	le.PutUint32(out[4:], uint32(36+dataLen))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	le.PutUint32(out[16:], 16)
	le.PutUint16(out[20:], 1)
	le.PutUint16(out[22:], uint16(nc))
	le.PutUint32(out[24:], uint32(s.SampleRate()))
	le.PutUint32(out[28:], uint32(s.SampleRate()*nc*2))
	le.PutUint16(out[32:], uint16(nc*2))
	le.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	le.PutUint32(out[40:], uint32(dataLen))
	for i, v := range s.Interleaved() {
		le.PutUint16(out[HeaderSize+2*i:], uint16(v))
	}
	return out
}

func TestDecodeSignalCanonicalLayout(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	left := make([]int16, 257)
	right := make([]int16, 257)
	for i := range left {
		left[i] = int16(rng.Intn(65536) - 32768)
		right[i] = int16(rng.Intn(65536) - 32768)
	}
	left[0], right[0] = -32768, 32767

	in, err := NewSignal(44100, [][]int16{left, right})
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	raw := encodeCanonical(in)
	out, err := DecodeSignal(raw, 2, 44100)
	if err != nil {
		t.Fatalf("DecodeSignal: %v", err)
	}
	if diff := cmp.Diff(in.Channel(0), out.Channel(0)); diff != "" {
		t.Fatalf("left mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(in.Channel(1), out.Channel(1)); diff != "" {
		t.Fatalf("right mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSignalCopiesInput(t *testing.T) {
	ch := []int16{1, 2, 3}
	s, err := NewSignal(0, [][]int16{ch})
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	ch[0] = 99
	got := s.Channel(0)
	got[1] = 99
	if diff := cmp.Diff([]int16{1, 2, 3}, s.Channel(0)); diff != "" {
		t.Fatalf("signal was aliased (-want +got):\n%s", diff)
	}
}

func TestNewSignalRejectsRaggedChannels(t *testing.T) {
	if _, err := NewSignal(0, [][]int16{{1, 2}, {1}}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("NewSignal() error = %v, want ErrInvalidArgument", err)
	}
}

func TestMonoAndNormalize(t *testing.T) {
	s, _ := NewSignal(0, [][]int16{{16384, -32768}, {0, -32768}})
	got := s.Mono()
	want := []float64{0.25, -1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Mono() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.5, -1}, Normalize([]int16{16384, -32768})); diff != "" {
		t.Fatalf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestClampInt16(t *testing.T) {
	tests := []struct {
		in   float64
		want int16
	}{
		{0.4, 0},
		{0.5, 1},
		{-0.5, -1},
		{40000, 32767},
		{-40000, -32768},
	}
	for _, tt := range tests {
		if got := ClampInt16(tt.in); got != tt.want {
			t.Errorf("ClampInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
