package input

import (
	"testing"

	"github.com/cwbudde/piano-sampler/note"
)

func TestDefaultKeyMapHomeRowIsOctaveFour(t *testing.T) {
	m := DefaultKeyMap()
	if len(m) != 48 {
		t.Fatalf("expected 48 mapped keys, got %d", len(m))
	}
	checks := map[string]string{
		"KeyA":         "C4",
		"KeyS":         "Db4",
		"Enter":        "B4",
		"Digit1":       "C2",
		"Equal":        "B2",
		"BracketRight": "B3",
		"ShiftLeft":    "C5",
		"ShiftRight":   "B5",
	}
	for code, want := range checks {
		if got := m[code].String(); got != want {
			t.Fatalf("%s maps to %s, want %s", code, got, want)
		}
	}
}

func TestKeyRepeatTriggersOnce(t *testing.T) {
	k := NewKeyboard(DefaultKeyMap(), note.Piano88)
	ons := 0
	for i := 0; i < 10; i++ {
		if ev, ok := k.KeyDown("KeyA"); ok {
			if !ev.On || ev.Note != note.MustParse("C4") || ev.Velocity != MaxVelocity {
				t.Fatalf("unexpected event %+v", ev)
			}
			ons++
		}
	}
	if ons != 1 {
		t.Fatalf("expected 1 note-on for repeated key-down, got %d", ons)
	}
	ev, ok := k.KeyUp("KeyA")
	if !ok || ev.On {
		t.Fatalf("expected note-off on key-up, got %+v ok=%v", ev, ok)
	}
	if _, ok := k.KeyDown("KeyA"); !ok {
		t.Fatalf("expected a fresh note-on after release")
	}
}

func TestKeyboardIgnoresUnknownAndOutOfRange(t *testing.T) {
	narrow := note.Range{Low: note.MustParse("C4"), High: note.MustParse("B4")}
	k := NewKeyboard(DefaultKeyMap(), narrow)
	if _, ok := k.KeyDown("F13"); ok {
		t.Fatalf("unknown code must be ignored")
	}
	if _, ok := k.KeyUp("F13"); ok {
		t.Fatalf("unknown code must be ignored on key-up")
	}
	if _, ok := k.KeyDown("KeyQ"); ok {
		t.Fatalf("C3 is outside the configured range")
	}
	if k.Held("KeyQ") {
		t.Fatalf("ignored key must not be marked held")
	}
}

func TestMouseDragAndRelease(t *testing.T) {
	m := NewMouse(note.Piano88)
	c4, d4, e4 := note.MustParse("C4"), note.MustParse("D4"), note.MustParse("E4")

	if ev, ok := m.Press(c4); !ok || !ev.On {
		t.Fatalf("press should emit note-on")
	}
	if _, ok := m.Leave(e4); ok {
		t.Fatalf("leaving an unpressed key must not emit")
	}
	if ev, ok := m.Leave(c4); !ok || ev.On || ev.Note != c4 {
		t.Fatalf("leave should release C4, got %+v", ev)
	}
	m.Press(e4)
	m.Press(d4)
	evs := m.Release()
	if len(evs) != 2 || evs[0].Note != d4 || evs[1].Note != e4 || evs[0].On || evs[1].On {
		t.Fatalf("expected offs for D4,E4 in order, got %+v", evs)
	}
	if evs := m.Release(); len(evs) != 0 {
		t.Fatalf("second release should be empty, got %+v", evs)
	}
}

func TestParseMIDI(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		ok   bool
		on   bool
		note string
	}{
		{"note on", []byte{0x90, 60, 100}, true, true, "C4"},
		{"channel masked", []byte{0x9f, 61, 1}, true, true, "Db4"},
		{"running status off", []byte{0x90, 60, 0}, true, false, "C4"},
		{"note off ignores velocity", []byte{0x85, 60, 64}, true, false, "C4"},
		{"lowest key", []byte{0x90, 21, 10}, true, true, "A0"},
		{"below range", []byte{0x90, 20, 10}, false, false, ""},
		{"above range", []byte{0x90, 109, 10}, false, false, ""},
		{"control change", []byte{0xb0, 64, 127}, false, false, ""},
		{"short", []byte{0x90, 60}, false, false, ""},
	}
	for _, c := range cases {
		ev, ok := ParseMIDI(c.data, note.Piano88)
		if ok != c.ok {
			t.Fatalf("%s: ok=%v want %v", c.name, ok, c.ok)
		}
		if !ok {
			continue
		}
		if ev.On != c.on || ev.Note.String() != c.note {
			t.Fatalf("%s: got %+v", c.name, ev)
		}
	}
}

func normalizeAll(m *MIDI, msgs ...[]byte) []bool {
	var out []bool
	for _, msg := range msgs {
		if ev, ok := m.Normalize(msg); ok {
			out = append(out, ev.On)
		}
	}
	return out
}

func TestRedundantNoteOnBecomesNoteOff(t *testing.T) {
	on := []byte{0x90, 60, 90}
	off := []byte{0x80, 60, 0}

	got := normalizeAll(NewMIDI(note.Piano88), on, on)
	if len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("on,on should normalize to on,off: %v", got)
	}

	got = normalizeAll(NewMIDI(note.Piano88), on, off, on)
	if len(got) != 3 || !got[0] || got[1] || !got[2] {
		t.Fatalf("on,off,on should be preserved: %v", got)
	}

	got = normalizeAll(NewMIDI(note.Piano88), on, on, on)
	if len(got) != 3 || !got[0] || got[1] || !got[2] {
		t.Fatalf("on,on,on should alternate: %v", got)
	}
}

func TestMIDIResetForgetsToggles(t *testing.T) {
	m := NewMIDI(note.Piano88)
	m.Normalize([]byte{0x90, 64, 90})
	if len(m.Held()) != 1 {
		t.Fatalf("expected one held note")
	}
	m.Reset()
	if ev, _ := m.Normalize([]byte{0x90, 64, 90}); !ev.On {
		t.Fatalf("after Reset a note-on must stay a note-on")
	}
}
