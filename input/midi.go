package input

import "github.com/cwbudde/piano-sampler/note"

const (
	statusNoteOff = 0x80
	statusNoteOn  = 0x90

	// lowestMIDINote is A0, the first key of an 88-key piano.
	lowestMIDINote = 21
)

// ParseMIDI decodes a 3-byte channel voice message. Note-on with velocity
// 0 is a note-off. Anything that is not a note message for a key inside
// valid is dropped.
func ParseMIDI(data []byte, valid note.Range) (Event, bool) {
	if len(data) < 3 {
		return Event{}, false
	}
	value, velocity := int(data[1]&0x7f), int(data[2]&0x7f)
	var on bool
	switch data[0] & 0xf0 {
	case statusNoteOn:
		on = velocity > 0
	case statusNoteOff:
		on = false
	default:
		return Event{}, false
	}
	if value < lowestMIDINote {
		return Event{}, false
	}
	id := note.FromMIDI(value)
	if !valid.Contains(id) {
		return Event{}, false
	}
	return Event{Note: id, Velocity: velocity, On: on}, true
}

// MIDI normalizes messages from one input device. Some MIDI-to-USB
// adapters send a second note-on instead of a note-off when several keys
// are released together, so a note-on for a note that is already on is
// turned into a note-off. Well-behaved devices never hit that case.
type MIDI struct {
	valid note.Range
	on    map[note.ID]bool
}

// NewMIDI creates a normalizer for keys limited to valid.
func NewMIDI(valid note.Range) *MIDI {
	return &MIDI{valid: valid, on: make(map[note.ID]bool)}
}

// Normalize parses data and applies the redundant note-on correction.
func (m *MIDI) Normalize(data []byte) (Event, bool) {
	ev, ok := ParseMIDI(data, m.valid)
	if !ok {
		return Event{}, false
	}
	if ev.On {
		if m.on[ev.Note] {
			delete(m.on, ev.Note)
			ev.On = false
		} else {
			m.on[ev.Note] = true
		}
	} else {
		delete(m.on, ev.Note)
	}
	return ev, true
}

// Held returns the notes currently on, in no particular order.
func (m *MIDI) Held() []note.ID {
	out := make([]note.ID, 0, len(m.on))
	for id := range m.on {
		out = append(out, id)
	}
	return out
}

// Reset forgets all toggle state, e.g. after switching devices.
func (m *MIDI) Reset() {
	clear(m.on)
}
