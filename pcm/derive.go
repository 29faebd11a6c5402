package pcm

import "fmt"

// Derivation names a mono view of a stereo signal.
type Derivation int

const (
	Left Derivation = iota
	Right
	Mid  // (L+R)/2
	Side // (L-R)/2
)

// Derivations lists every view in display order.
var Derivations = []Derivation{Left, Right, Mid, Side}

func (d Derivation) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Mid:
		return "mid"
	case Side:
		return "side"
	}
	return fmt.Sprintf("Derivation(%d)", int(d))
}

// ParseDerivation maps a name produced by String back to a Derivation.
func ParseDerivation(name string) (Derivation, error) {
	for _, d := range Derivations {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown channel derivation %q", ErrInvalidArgument, name)
}

// Derive returns the requested mono view as a new slice. Mid and Side halve
// with integer division, so the .5 case truncates toward zero.
func (s *Signal) Derive(d Derivation) ([]int16, error) {
	switch d {
	case Left:
		return s.Channel(0), nil
	case Right, Mid, Side:
	default:
		return nil, fmt.Errorf("%w: unknown channel derivation %d", ErrInvalidArgument, int(d))
	}
	if s.NumChannels() < 2 {
		return nil, fmt.Errorf("%w: %s needs a stereo signal, got %d channel(s)", ErrInvalidArgument, d, s.NumChannels())
	}
	if d == Right {
		return s.Channel(1), nil
	}

	l, r := s.channels[0], s.channels[1]
	out := make([]int16, len(l))
	for i := range l {
		a, b := int32(l[i]), int32(r[i])
		if d == Mid {
			out[i] = int16((a + b) / 2)
		} else {
			out[i] = int16((a - b) / 2)
		}
	}
	return out, nil
}
