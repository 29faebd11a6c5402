package pcm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// Layout describes interleaving that is known out of band, as required by
// the fixed-offset reader.
type Layout struct {
	Channels   int
	SampleRate int
}

// DefaultLayout is 44.1 kHz stereo.
var DefaultLayout = Layout{Channels: 2, SampleRate: 44100}

// errContainer marks files the chunk decoder does not recognize as WAV at
// all. Only these fall back to the fixed-offset reader in Load.
var errContainer = fmt.Errorf("%w: unrecognized wav container", ErrFormat)

const wavFormatPCM = 1

// ReadFile decodes a WAV file by walking its RIFF chunks. Only 16-bit
// integer PCM is accepted.
func ReadFile(path string) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", errContainer, path)
	}
	if dec.WavAudioFormat != wavFormatPCM || dec.BitDepth != 16 {
		return nil, fmt.Errorf("%w: %s is %d-bit format %d, want 16-bit integer PCM",
			ErrFormat, path, dec.BitDepth, dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: invalid wav buffer: %s", ErrFormat, path)
	}
	return fromFloatBuffer(buf)
}

// ReadFileFixed reads path with the fixed 44 byte header offset.
func ReadFileFixed(path string, layout Layout) (*Signal, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, openError(path, err)
	}
	s, err := DecodeSignal(raw, layout.Channels, layout.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Load tries ReadFile first and falls back to the fixed-offset reader only
// when the chunk decoder does not recognize the container. A valid WAV in
// another sample format is an error, not a fallback.
func Load(path string, fallback Layout) (*Signal, error) {
	s, err := ReadFile(path)
	if errors.Is(err, errContainer) {
		return ReadFileFixed(path, fallback)
	}
	return s, err
}

// WriteFile writes s as a 16-bit PCM WAV file, creating parent directories.
func WriteFile(path string, s *Signal) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	nc := s.NumChannels()
	enc := wav.NewEncoder(f, s.SampleRate(), 16, nc, wavFormatPCM)
	interleaved := s.Interleaved()
	data := make([]float32, len(interleaved))
	for i, v := range interleaved {
		data[i] = float32(v) / FullScale
	}
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  s.SampleRate(),
			NumChannels: nc,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Resample converts x from one sample rate to another. Equal rates return
// x unchanged.
func Resample(x []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return x, nil
	}
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("%w: sample rates must be > 0: %d -> %d", ErrInvalidArgument, fromRate, toRate)
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(x), nil
}

// fromFloatBuffer undoes the decoder's division by 2^15.
func fromFloatBuffer(buf *audio.Float32Buffer) (*Signal, error) {
	nc := buf.Format.NumChannels
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = ClampInt16(float64(v) * FullScale)
	}
	return Deinterleave(samples, nc, buf.Format.SampleRate)
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingFile, path)
	}
	return err
}
