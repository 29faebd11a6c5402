package quantize

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/icza/bitio"

	"github.com/cwbudde/algo-wavqa/pcm"
)

// ErrStream reports a packed stream with a bad header or missing samples.
var ErrStream = errors.New("quantize: malformed stream")

// StreamHeaderBits is the size of the packed stream header: sample rate,
// channel count, frame count and bit depth as 32-bit big-endian fields.
const StreamHeaderBits = 4 * 32

// EncodedSize is the byte length Encode produces for a signal of the given
// shape, including the header and the padding of the last byte.
func EncodedSize(frames, channels int, p Profile) int64 {
	bits := int64(StreamHeaderBits) + int64(frames)*int64(channels)*int64(p.Bits)
	return (bits + 7) / 8
}

// Encode packs sig at p.Bits bits per sample. Each sample is stored as the
// index of its nearest level, MSB first, frames interleaved, with the final
// byte zero-padded. Samples are quantized on the way, so encoding an
// unquantized signal is lossy.
func Encode(w io.Writer, sig *pcm.Signal, p Profile) error {
	if p.Bits < MinBits || p.Bits > MaxBits {
		return fmt.Errorf("%w: bits must be in [%d, %d]: %d", ErrInvalidArgument, MinBits, MaxBits, p.Bits)
	}
	if sig.SampleRate() <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0: %d", ErrInvalidArgument, sig.SampleRate())
	}
	bw := bitio.NewWriter(w)
	for _, v := range []int{sig.SampleRate(), sig.NumChannels(), sig.Len(), p.Bits} {
		bw.TryWriteBits(uint64(uint32(v)), 32)
	}
	n := uint8(p.Bits)
	for _, x := range sig.Interleaved() {
		bw.TryWriteBits(uint64(Level(x, p)), n)
	}
	if bw.TryError != nil {
		return bw.TryError
	}
	return bw.Close()
}

// Decode reads a stream written by Encode and returns the signal at its
// level values together with the profile it was packed with.
func Decode(r io.Reader) (*pcm.Signal, Profile, error) {
	br := bitio.NewReader(r)
	var hdr [4]uint64
	for i := range hdr {
		hdr[i] = br.TryReadBits(32)
	}
	if br.TryError != nil {
		return nil, Profile{}, fmt.Errorf("%w: header: %v", ErrStream, br.TryError)
	}
	rate, channels, frames, bits := hdr[0], hdr[1], hdr[2], hdr[3]
	if rate == 0 || rate > math.MaxInt32 || channels == 0 || channels > math.MaxUint16 || frames > math.MaxInt32 {
		return nil, Profile{}, fmt.Errorf("%w: rate %d, %d channels, %d frames", ErrStream, rate, channels, frames)
	}
	p, err := NewProfile(int(bits))
	if err != nil {
		return nil, Profile{}, fmt.Errorf("%w: %v", ErrStream, err)
	}

	// Grow with the data read so a corrupt frame count cannot force a
	// huge allocation up front.
	chs := make([][]int16, channels)
	for c := range chs {
		chs[c] = make([]int16, 0, min(int(frames), (1<<20)/int(channels)))
	}
	n := uint8(p.Bits)
	for i := 0; i < int(frames); i++ {
		for c := range chs {
			level, err := br.ReadBits(n)
			if err != nil {
				return nil, Profile{}, fmt.Errorf("%w: frame %d channel %d: %v", ErrStream, i, c, err)
			}
			chs[c] = append(chs[c], Value(int(level), p))
		}
	}
	sig, err := pcm.NewSignal(int(rate), chs)
	if err != nil {
		return nil, Profile{}, err
	}
	return sig, p, nil
}
