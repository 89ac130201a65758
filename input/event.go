// Package input turns raw keyboard, pointer and MIDI events into a
// uniform stream of note on/off events.
package input

import "github.com/cwbudde/piano-sampler/note"

// MaxVelocity is the velocity used for inputs without touch sensitivity.
const MaxVelocity = 128

// Event is a normalized note trigger.
type Event struct {
	Note     note.ID
	Velocity int
	On       bool
}

// NoteOn returns an on event.
func NoteOn(id note.ID, velocity int) Event {
	return Event{Note: id, Velocity: velocity, On: true}
}

// NoteOff returns an off event.
func NoteOff(id note.ID) Event {
	return Event{Note: id}
}
