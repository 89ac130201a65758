// Package note defines the identity of a playable piano key.
package note

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PitchClass is one of the 12 semitones of an octave, C = 0.
type PitchClass int

const (
	C PitchClass = iota
	Db
	D
	Eb
	E
	F
	Gb
	G
	Ab
	A
	Bb
	B
)

// ErrInvalid is returned when a note name cannot be parsed.
var ErrInvalid = errors.New("invalid note")

var pitchNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

func (p PitchClass) String() string {
	if p < 0 || p > B {
		return "PitchClass(" + strconv.Itoa(int(p)) + ")"
	}
	return pitchNames[p]
}

// ID identifies one key by pitch class and octave. It is comparable and
// used as a map key throughout the engine.
type ID struct {
	Pitch  PitchClass
	Octave int
}

// New returns the ID for pitch p in the given octave.
func New(p PitchClass, octave int) ID {
	return ID{Pitch: p, Octave: octave}
}

// FromMIDI maps a MIDI note number to an ID (60 = C4).
func FromMIDI(value int) ID {
	return ID{Pitch: PitchClass(value % 12), Octave: value/12 - 1}
}

// MIDI returns the MIDI note number of id.
func (id ID) MIDI() int {
	return (id.Octave+1)*12 + int(id.Pitch)
}

// String returns the canonical name, e.g. "C4" or "Bb0".
func (id ID) String() string {
	return id.Pitch.String() + strconv.Itoa(id.Octave)
}

// Parse reads a canonical note name. Sharps are accepted and normalized
// to the equivalent flat ("C#4" parses as Db4).
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	var p PitchClass
	switch s[0] {
	case 'C', 'c':
		p = C
	case 'D', 'd':
		p = D
	case 'E', 'e':
		p = E
	case 'F', 'f':
		p = F
	case 'G', 'g':
		p = G
	case 'A', 'a':
		p = A
	case 'B', 'b':
		p = B
	default:
		return ID{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "b") && len(rest) > 1:
		p = (p + 11) % 12
		rest = rest[1:]
	case strings.HasPrefix(rest, "#"):
		p = (p + 1) % 12
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	// Cb and B# cross the octave boundary.
	if s[0] == 'C' || s[0] == 'c' {
		if p == B {
			octave--
		}
	}
	if s[0] == 'B' || s[0] == 'b' {
		if p == C {
			octave++
		}
	}
	return ID{Pitch: p, Octave: octave}, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// MarshalText implements encoding.TextMarshaler so IDs can be used as
// JSON/YAML map keys.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Range is an inclusive span of keys.
type Range struct {
	Low, High ID
}

// Piano88 is the standard 88-key range, A0 to C8.
var Piano88 = Range{Low: ID{Pitch: A, Octave: 0}, High: ID{Pitch: C, Octave: 8}}

// Contains reports whether id lies within r.
func (r Range) Contains(id ID) bool {
	if id.Pitch < C || id.Pitch > B {
		return false
	}
	m := id.MIDI()
	return m >= r.Low.MIDI() && m <= r.High.MIDI()
}

// All returns every ID in r in ascending pitch order.
func (r Range) All() []ID {
	lo, hi := r.Low.MIDI(), r.High.MIDI()
	if hi < lo {
		return nil
	}
	out := make([]ID, 0, hi-lo+1)
	for m := lo; m <= hi; m++ {
		out = append(out, FromMIDI(m))
	}
	return out
}
