package note

import (
	"errors"
	"testing"
)

func TestFromMIDIMatchesOctaveConvention(t *testing.T) {
	cases := []struct {
		value int
		want  string
	}{
		{21, "A0"},
		{24, "C1"},
		{36, "C2"},
		{60, "C4"},
		{61, "Db4"},
		{70, "Bb4"},
		{108, "C8"},
	}
	for _, c := range cases {
		got := FromMIDI(c.value)
		if got.String() != c.want {
			t.Fatalf("FromMIDI(%d) = %s, want %s", c.value, got, c.want)
		}
		if got.MIDI() != c.value {
			t.Fatalf("round trip mismatch for %d: got %d", c.value, got.MIDI())
		}
	}
}

func TestParseAcceptsFlatsAndSharps(t *testing.T) {
	cases := map[string]ID{
		"C4":  {Pitch: C, Octave: 4},
		"Db4": {Pitch: Db, Octave: 4},
		"C#4": {Pitch: Db, Octave: 4},
		"Bb0": {Pitch: Bb, Octave: 0},
		"A#0": {Pitch: Bb, Octave: 0},
		"Cb4": {Pitch: B, Octave: 3},
		"B#3": {Pitch: C, Octave: 4},
		"c8":  {Pitch: C, Octave: 8},
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "H4", "C", "Cx", "4C"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q): expected ErrInvalid, got %v", in, err)
		}
	}
}

func TestPiano88Range(t *testing.T) {
	all := Piano88.All()
	if len(all) != 88 {
		t.Fatalf("expected 88 keys, got %d", len(all))
	}
	if all[0] != MustParse("A0") || all[87] != MustParse("C8") {
		t.Fatalf("unexpected bounds: %s..%s", all[0], all[87])
	}
	if Piano88.Contains(MustParse("Ab0")) || Piano88.Contains(MustParse("Db8")) {
		t.Fatalf("range must exclude keys outside A0..C8")
	}
	if !Piano88.Contains(MustParse("C4")) {
		t.Fatalf("range must contain C4")
	}
}

func TestTextMarshalling(t *testing.T) {
	var id ID
	if err := id.UnmarshalText([]byte("Eb5")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	b, _ := id.MarshalText()
	if string(b) != "Eb5" {
		t.Fatalf("MarshalText = %q", b)
	}
}
