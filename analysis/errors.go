package analysis

import "errors"

var (
	// ErrLengthMismatch reports reference and test signals of different shape.
	ErrLengthMismatch = errors.New("analysis: length mismatch")
	// ErrInvalidArgument reports empty input or a non-positive peak.
	ErrInvalidArgument = errors.New("analysis: invalid argument")
)
