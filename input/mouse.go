package input

import (
	"sort"

	"github.com/cwbudde/piano-sampler/note"
)

// Mouse tracks notes pressed with the pointer. Dragging across keys is a
// Leave on the old key followed by a Press on the new one.
type Mouse struct {
	valid   note.Range
	pressed map[note.ID]bool
}

// NewMouse creates a pointer normalizer for keys limited to valid.
func NewMouse(valid note.Range) *Mouse {
	return &Mouse{valid: valid, pressed: make(map[note.ID]bool)}
}

// Press emits a note-on for the key under the pointer.
func (m *Mouse) Press(id note.ID) (Event, bool) {
	if !m.valid.Contains(id) {
		return Event{}, false
	}
	m.pressed[id] = true
	return NoteOn(id, MaxVelocity), true
}

// Leave emits a note-off when the pointer leaves a pressed key.
func (m *Mouse) Leave(id note.ID) (Event, bool) {
	if !m.pressed[id] {
		return Event{}, false
	}
	delete(m.pressed, id)
	return NoteOff(id), true
}

// Release emits note-offs for every pressed key, lowest first.
func (m *Mouse) Release() []Event {
	if len(m.pressed) == 0 {
		return nil
	}
	ids := make([]note.ID, 0, len(m.pressed))
	for id := range m.pressed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].MIDI() < ids[j].MIDI() })
	out := make([]Event, len(ids))
	for i, id := range ids {
		out[i] = NoteOff(id)
		delete(m.pressed, id)
	}
	return out
}
