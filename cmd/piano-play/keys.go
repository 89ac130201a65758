package main

import (
	"sort"
	"time"
	"unicode"

	"github.com/cwbudde/piano-sampler/input"
)

// releaseTimeout releases a key once its auto-repeat stops. A terminal
// reports no key-up events, and the first repeat arrives after ~500 ms.
const releaseTimeout = 600 * time.Millisecond

// runeCodes maps terminal characters to DOM key codes. The Shift keys
// have no character, so the keys beside the bottom row stand in for them.
var runeCodes = map[rune]string{
	'1': "Digit1", '2': "Digit2", '3': "Digit3", '4': "Digit4", '5': "Digit5", '6': "Digit6",
	'7': "Digit7", '8': "Digit8", '9': "Digit9", '0': "Digit0", '-': "Minus", '=': "Equal",

	'q': "KeyQ", 'w': "KeyW", 'e': "KeyE", 'r': "KeyR", 't': "KeyT", 'y': "KeyY",
	'u': "KeyU", 'i': "KeyI", 'o': "KeyO", 'p': "KeyP", '[': "BracketLeft", ']': "BracketRight",

	'a': "KeyA", 's': "KeyS", 'd': "KeyD", 'f': "KeyF", 'g': "KeyG", 'h': "KeyH",
	'j': "KeyJ", 'k': "KeyK", 'l': "KeyL", ';': "Semicolon", '\'': "Quote",

	'`': "ShiftLeft", 'z': "KeyZ", 'x': "KeyX", 'c': "KeyC", 'v': "KeyV", 'b': "KeyB",
	'n': "KeyN", 'm': "KeyM", ',': "Comma", '.': "Period", '/': "Slash", '\\': "ShiftRight",
}

func codeForRune(r rune) (string, bool) {
	code, ok := runeCodes[unicode.ToLower(r)]
	return code, ok
}

// termKeys turns a stream of key presses without releases into
// press/release pairs.
type termKeys struct {
	kb       *input.Keyboard
	lastSeen map[string]time.Time
	timeout  time.Duration
	emit     func(input.Event)
}

func newTermKeys(kb *input.Keyboard, emit func(input.Event)) *termKeys {
	return &termKeys{
		kb:       kb,
		lastSeen: make(map[string]time.Time),
		timeout:  releaseTimeout,
		emit:     emit,
	}
}

// Press records a key press or auto-repeat of code.
func (t *termKeys) Press(code string, now time.Time) {
	if ev, ok := t.kb.KeyDown(code); ok {
		t.emit(ev)
	}
	if t.kb.Held(code) {
		t.lastSeen[code] = now
	}
}

// Expire releases every key not seen within the timeout, in code order.
func (t *termKeys) Expire(now time.Time) {
	var stale []string
	for code, seen := range t.lastSeen {
		if now.Sub(seen) > t.timeout {
			stale = append(stale, code)
		}
	}
	sort.Strings(stale)
	for _, code := range stale {
		t.release(code)
	}
}

// ReleaseAll releases every held key.
func (t *termKeys) ReleaseAll() {
	codes := make([]string, 0, len(t.lastSeen))
	for code := range t.lastSeen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		t.release(code)
	}
}

func (t *termKeys) release(code string) {
	delete(t.lastSeen, code)
	if ev, ok := t.kb.KeyUp(code); ok {
		t.emit(ev)
	}
}
