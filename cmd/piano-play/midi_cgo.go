//go:build cgo

package main

import (
	"log"

	"github.com/cwbudde/piano-sampler/input/gomidi"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func newMIDISource(logger *log.Logger) gomidi.Source {
	drv, err := rtmididrv.New()
	if err != nil {
		logger.Printf("midi: %v", err)
		return nil
	}
	return &gomidi.DriverSource{Driver: drv}
}
