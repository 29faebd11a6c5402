package pcm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
	"github.com/google/go-cmp/cmp"
)

func TestWriteFileReadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "stereo.wav")

	in, _ := NewSignal(22050, [][]int16{
		{0, 1000, -1000, 32767, -32768},
		{5, -5, 12345, -12345, 0},
	})
	if err := WriteFile(path, in); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	for name, read := range map[string]func() (*Signal, error){
		"chunks": func() (*Signal, error) { return ReadFile(path) },
		"fixed":  func() (*Signal, error) { return ReadFileFixed(path, Layout{Channels: 2, SampleRate: 22050}) },
	} {
		out, err := read()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if out.SampleRate() != 22050 || out.NumChannels() != 2 {
			t.Fatalf("%s: rate=%d channels=%d", name, out.SampleRate(), out.NumChannels())
		}
		for c := 0; c < 2; c++ {
			if diff := cmp.Diff(in.Channel(c), out.Channel(c)); diff != "" {
				t.Fatalf("%s: channel %d mismatch (-want +got):\n%s", name, c, diff)
			}
		}
	}
}

func TestWriteFileIsCanonicalAndLoadKeepsFullScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "full.wav")
	in, _ := NewSignal(8000, [][]int16{
		{1000, -20000, 32767},
		{5, -5, 12345},
	})
	if err := WriteFile(path, in); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(raw) != HeaderSize+3*2*2 {
		t.Fatalf("file is %d bytes, want %d", len(raw), HeaderSize+12)
	}
	fixed, err := DecodeSignal(raw, 2, 8000)
	if err != nil {
		t.Fatalf("DecodeSignal: %v", err)
	}

	loaded, err := Load(path, Layout{Channels: 1, SampleRate: 11025})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.SampleRate() != 8000 || loaded.NumChannels() != 2 {
		t.Fatalf("Load() rate=%d channels=%d, want header values", loaded.SampleRate(), loaded.NumChannels())
	}
	for c := 0; c < 2; c++ {
		if diff := cmp.Diff(in.Channel(c), fixed.Channel(c)); diff != "" {
			t.Fatalf("fixed-offset channel %d mismatch (-want +got):\n%s", c, diff)
		}
		if diff := cmp.Diff(in.Channel(c), loaded.Channel(c)); diff != "" {
			t.Fatalf("Load channel %d mismatch (-want +got):\n%s", c, diff)
		}
	}
}

func writeWAV24(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, 48000, 24, 2, 1)
	buf := &audio.Float32Buffer{
		Format:         &audio.Format{SampleRate: 48000, NumChannels: 2},
		Data:           []float32{0, 0.25, -0.5, 0.125, 0.75, -0.75},
		SourceBitDepth: 24,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestLoadRejectsOtherBitDepthsWithoutFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep.wav")
	writeWAV24(t, path)

	s, err := Load(path, DefaultLayout)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Load() error = %v, want ErrFormat", err)
	}
	if errors.Is(err, errContainer) || s != nil {
		t.Fatalf("Load() fell back to the fixed-offset reader: err=%v signal=%v", err, s)
	}
	if _, err := ReadFile(path); !errors.Is(err, ErrFormat) {
		t.Fatalf("ReadFile() error = %v, want ErrFormat", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.wav")
	if _, err := ReadFile(path); !errors.Is(err, ErrMissingFile) {
		t.Fatalf("ReadFile() error = %v, want ErrMissingFile", err)
	}
	if _, err := ReadFileFixed(path, DefaultLayout); !errors.Is(err, ErrMissingFile) {
		t.Fatalf("ReadFileFixed() error = %v, want ErrMissingFile", err)
	}
	if _, err := Load(path, DefaultLayout); !errors.Is(err, ErrMissingFile) {
		t.Fatalf("Load() error = %v, want ErrMissingFile", err)
	}
}

func TestLoadFallsBackToFixedOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.wav")
	raw := make([]byte, HeaderSize+8)
	copy(raw[HeaderSize:], []byte{0x01, 0x00, 0x02, 0x00, 0xFF, 0xFF, 0xFE, 0xFF})
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Load(path, Layout{Channels: 2, SampleRate: 8000})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]int16{1, -1}, s.Channel(0)); diff != "" {
		t.Fatalf("left mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int16{2, -2}, s.Channel(1)); diff != "" {
		t.Fatalf("right mismatch (-want +got):\n%s", diff)
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	x := []float64{0.1, 0.2, 0.3}
	got, err := Resample(x, 48000, 48000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if diff := cmp.Diff(x, got); diff != "" {
		t.Fatalf("Resample() mismatch (-want +got):\n%s", diff)
	}
	if _, err := Resample(x, 0, 48000); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Resample(0) error = %v, want ErrInvalidArgument", err)
	}
}

func TestResampleChangesLength(t *testing.T) {
	x := make([]float64, 4800)
	got, err := Resample(x, 48000, 24000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if len(got) < 2000 || len(got) > 2800 {
		t.Fatalf("len(Resample()) = %d, want about 2400", len(got))
	}
}
