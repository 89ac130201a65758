// Package state holds the process-wide piano state and notifies
// subscribers about changes.
package state

import (
	"sort"

	"github.com/cwbudde/piano-sampler/note"
)

// Tristate is a boolean that may not be known yet.
type Tristate int

const (
	Unknown Tristate = iota
	No
	Yes
)

// TristateOf converts b to Yes or No.
func TristateOf(b bool) Tristate {
	if b {
		return Yes
	}
	return No
}

// Field names one member of State.
type Field int

const (
	MIDISupported Field = iota
	MIDIInputPresent
	ActiveNotes
	PressedNotes
	numFields
)

func (f Field) String() string {
	switch f {
	case MIDISupported:
		return "midiSupported"
	case MIDIInputPresent:
		return "midiInputPresent"
	case ActiveNotes:
		return "activeNotes"
	case PressedNotes:
		return "pressedNotes"
	}
	return "unknown"
}

// NoteSet is a set of notes.
type NoteSet map[note.ID]bool

// Sorted returns the members in ascending pitch order.
func (s NoteSet) Sorted() []note.ID {
	out := make([]note.ID, 0, len(s))
	for id, on := range s {
		if on {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MIDI() < out[j].MIDI() })
	return out
}

func (s NoteSet) clone() NoteSet {
	out := make(NoteSet, len(s))
	for id, on := range s {
		if on {
			out[id] = true
		}
	}
	return out
}

// State is the shared record read by renderers. ActiveNotes are the keys
// shown as sounding; PressedNotes are the keys logically held, which
// includes notes whose sample is still loading.
type State struct {
	MIDISupported    Tristate
	MIDIInputPresent Tristate
	ActiveNotes      NoteSet
	PressedNotes     NoteSet
}

// Patch is a partial update. Nil fields are left untouched; the note maps
// add (true) or remove (false) individual members.
type Patch struct {
	MIDISupported    *Tristate
	MIDIInputPresent *Tristate
	Active           map[note.ID]bool
	Pressed          map[note.ID]bool
}

func (p Patch) fields() []Field {
	var out []Field
	if p.MIDISupported != nil {
		out = append(out, MIDISupported)
	}
	if p.MIDIInputPresent != nil {
		out = append(out, MIDIInputPresent)
	}
	if p.Active != nil {
		out = append(out, ActiveNotes)
	}
	if p.Pressed != nil {
		out = append(out, PressedNotes)
	}
	return out
}

// SetMIDISupported returns a patch for the MIDI support flag.
func SetMIDISupported(v Tristate) Patch { return Patch{MIDISupported: &v} }

// SetMIDIInputPresent returns a patch for the MIDI input flag.
func SetMIDIInputPresent(v Tristate) Patch { return Patch{MIDIInputPresent: &v} }

// MIDIStatus renders the connectivity fields as the status line shown
// next to the keyboard.
func MIDIStatus(s State) string {
	switch {
	case s.MIDIInputPresent == Yes:
		return "Device Connected"
	case s.MIDISupported == Yes:
		return "Device Disconnected"
	case s.MIDISupported == No:
		return "Not Supported"
	default:
		return "Initializing"
	}
}

func merge(s *State, p Patch) {
	if p.MIDISupported != nil {
		s.MIDISupported = *p.MIDISupported
	}
	if p.MIDIInputPresent != nil {
		s.MIDIInputPresent = *p.MIDIInputPresent
	}
	mergeSet(&s.ActiveNotes, p.Active)
	mergeSet(&s.PressedNotes, p.Pressed)
}

func mergeSet(dst *NoteSet, changes map[note.ID]bool) {
	if changes == nil {
		return
	}
	if *dst == nil {
		*dst = make(NoteSet)
	}
	for id, on := range changes {
		if on {
			(*dst)[id] = true
		} else {
			delete(*dst, id)
		}
	}
}

// project copies the watched fields of s; the rest stay zero.
func project(s State, watched [numFields]bool) State {
	var out State
	if watched[MIDISupported] {
		out.MIDISupported = s.MIDISupported
	}
	if watched[MIDIInputPresent] {
		out.MIDIInputPresent = s.MIDIInputPresent
	}
	if watched[ActiveNotes] {
		out.ActiveNotes = s.ActiveNotes.clone()
	}
	if watched[PressedNotes] {
		out.PressedNotes = s.PressedNotes.clone()
	}
	return out
}
