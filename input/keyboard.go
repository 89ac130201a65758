package input

import "github.com/cwbudde/piano-sampler/note"

// KeyMap maps physical key codes (DOM KeyboardEvent.code names) to notes.
type KeyMap map[string]note.ID

// DefaultKeyMap lays four keyboard rows over octaves 2 to 5, twelve
// semitones per row starting at C.
func DefaultKeyMap() KeyMap {
	digits := []string{"Digit1", "Digit2", "Digit3", "Digit4", "Digit5", "Digit6", "Digit7", "Digit8", "Digit9", "Digit0", "Minus", "Equal"}
	top := []string{"KeyQ", "KeyW", "KeyE", "KeyR", "KeyT", "KeyY", "KeyU", "KeyI", "KeyO", "KeyP", "BracketLeft", "BracketRight"}
	home := []string{"KeyA", "KeyS", "KeyD", "KeyF", "KeyG", "KeyH", "KeyJ", "KeyK", "KeyL", "Semicolon", "Quote", "Enter"}
	bottom := []string{"ShiftLeft", "KeyZ", "KeyX", "KeyC", "KeyV", "KeyB", "KeyN", "KeyM", "Comma", "Period", "Slash", "ShiftRight"}

	m := make(KeyMap, 48)
	for octave, row := range map[int][]string{2: digits, 3: top, 4: home, 5: bottom} {
		for i, code := range row {
			m[code] = note.New(note.PitchClass(i), octave)
		}
	}
	return m
}

// Keyboard performs edge detection on key events: a note-on is emitted
// only on the transition from released to held, so OS key repeat never
// retriggers a note.
type Keyboard struct {
	keys     KeyMap
	valid    note.Range
	held     map[string]bool
	Velocity int
}

// NewKeyboard creates a keyboard normalizer for keys limited to valid.
func NewKeyboard(keys KeyMap, valid note.Range) *Keyboard {
	return &Keyboard{
		keys:     keys,
		valid:    valid,
		held:     make(map[string]bool),
		Velocity: MaxVelocity,
	}
}

// KeyDown handles a key press (including auto-repeat).
func (k *Keyboard) KeyDown(code string) (Event, bool) {
	id, ok := k.keys[code]
	if !ok || !k.valid.Contains(id) {
		return Event{}, false
	}
	if k.held[code] {
		return Event{}, false
	}
	k.held[code] = true
	return NoteOn(id, k.Velocity), true
}

// KeyUp handles a key release.
func (k *Keyboard) KeyUp(code string) (Event, bool) {
	id, ok := k.keys[code]
	if !ok {
		return Event{}, false
	}
	delete(k.held, code)
	return NoteOff(id), true
}

// Held reports whether code is currently held.
func (k *Keyboard) Held(code string) bool { return k.held[code] }
