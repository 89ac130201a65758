package preset

import (
	"log"
	"os"

	"github.com/cwbudde/piano-sampler/analysis"
	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/piano"
	"github.com/cwbudde/piano-sampler/sample"
	"github.com/cwbudde/piano-sampler/state"
)

// DefaultSampleRate is the output rate used when a preset does not set one.
const DefaultSampleRate = 48000

// Config is a fully resolved instrument configuration.
type Config struct {
	SampleRate int
	Assets     string // directory or http(s) base URL of the note recordings
	MIDIInput  string // preferred MIDI input name prefix
	Range      note.Range
	Layout     sample.Layout
	Onset      analysis.OnsetDetector
	Params     *piano.Params
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SampleRate: DefaultSampleRate,
		Assets:     "assets",
		Range:      note.Piano88,
		Layout:     sample.DefaultLayout(),
		Onset:      analysis.NewOnsetDetector(),
		Params:     piano.NewDefaultParams(),
	}
}

// NewCache builds a sample cache that reads from Assets and resamples to
// SampleRate. logger may be nil.
func (c *Config) NewCache(logger *log.Logger) *sample.Cache {
	opts := []sample.Option{
		sample.WithLayout(c.Layout),
		sample.WithOnsetDetector(c.Onset),
		sample.WithSampleRate(c.SampleRate),
	}
	if logger != nil {
		opts = append(opts, sample.WithLogger(logger))
	}
	return sample.NewCache(sample.NewFetcher(c.Assets, os.DirFS(c.Assets)), opts...)
}

// NewPiano builds the engine for this configuration.
func (c *Config) NewPiano(samples piano.SampleSource, hub *state.Hub, logger *log.Logger) *piano.Piano {
	return piano.NewPiano(c.SampleRate, c.Params, samples, hub, logger)
}
