package sample

import (
	"strings"

	"github.com/cwbudde/piano-sampler/note"
)

// Layout resolves a note to the asset name of its recording.
type Layout struct {
	Prefix    string
	Dynamics  string             // default dynamics layer, e.g. "ff"
	Extension string             // without dot
	PerNote   map[note.ID]string // dynamics overrides
}

// DefaultLayout matches the asset naming Piano.ff.C4.ogg.
func DefaultLayout() Layout {
	return Layout{
		Prefix:    "Piano",
		Dynamics:  "ff",
		Extension: "ogg",
	}
}

// DynamicsFor returns the dynamics layer loaded for id.
func (l Layout) DynamicsFor(id note.ID) string {
	if d, ok := l.PerNote[id]; ok && d != "" {
		return d
	}
	if l.Dynamics == "" {
		return "ff"
	}
	return l.Dynamics
}

// Path returns "<prefix>.<dynamics>.<note><octave>.<ext>".
func (l Layout) Path(id note.ID) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = "Piano"
	}
	ext := strings.TrimPrefix(l.Extension, ".")
	if ext == "" {
		ext = "ogg"
	}
	return prefix + "." + l.DynamicsFor(id) + "." + id.String() + "." + ext
}
