//go:build !cgo

package main

import (
	"log"

	"github.com/cwbudde/piano-sampler/input/gomidi"
)

// with no cgo there is no rtmidi driver, so MIDI is reported unsupported
func newMIDISource(logger *log.Logger) gomidi.Source {
	return nil
}
