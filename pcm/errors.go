package pcm

import "errors"

var (
	// ErrFormat reports a byte stream that cannot form whole 16-bit samples or frames.
	ErrFormat = errors.New("pcm: malformed sample data")
	// ErrInvalidArgument reports a bad channel count, derivation or layout.
	ErrInvalidArgument = errors.New("pcm: invalid argument")
	// ErrMissingFile reports an input file that does not exist.
	ErrMissingFile = errors.New("pcm: missing file")
)
