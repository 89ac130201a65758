package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/cwbudde/piano-sampler/internal/audiofile"
	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/preset"
)

func main() {
	noteName := flag.String("note", "A4", "Note name (e.g. C4, F#3, Bb0)")
	velocity := flag.Int("velocity", 100, "Velocity (0-128)")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "Send NoteOff after this many seconds (negative = hold)")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop once released and stereo block RMS falls below this dBFS (e.g. -90). Disabled by default")
	sampleRate := flag.Int("sample-rate", 0, "Render sample rate in Hz (0 = preset value)")
	presetPath := flag.String("preset", "", "Preset JSON/YAML file path (optional)")
	assets := flag.String("assets", "", "Sample directory or URL override (optional)")
	timeout := flag.Duration("timeout", 30*time.Second, "Sample load timeout")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	cfg := preset.Default()
	if *presetPath != "" {
		var err error
		cfg, err = preset.Load(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
	}
	if *assets != "" {
		cfg.Assets = *assets
	}
	if *sampleRate > 0 {
		cfg.SampleRate = *sampleRate
	}

	id, err := note.Parse(*noteName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Range.Contains(id) {
		fmt.Fprintf(os.Stderr, "Error: note %s outside range %s..%s\n", id, cfg.Range.Low, cfg.Range.High)
		os.Exit(1)
	}

	fmt.Printf("Rendering %s, velocity %d, for %.2f seconds at %d Hz (samples: %s)...\n",
		id, *velocity, *duration, cfg.SampleRate, cfg.Assets)

	cache := cfg.NewCache(nil)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	s, err := cache.Load(ctx, id)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading sample: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %s (%s): %.3fs, onset %.3fs\n", id, s.Dynamics, s.Duration(), s.Onset)

	p := cfg.NewPiano(cache, nil, nil)
	defer p.Close()
	p.NoteOn(id, *velocity)

	const blockSize = 128
	totalFrames := int(float64(cfg.SampleRate) * (*duration))
	if totalFrames < 1 {
		totalFrames = 1
	}
	releaseAtFrame := -1
	if *releaseAfter >= 0 {
		releaseAtFrame = int(float64(cfg.SampleRate) * (*releaseAfter))
	}
	autoStop := !math.IsInf(*decayDBFS, 1)
	thresholdLin := math.Pow(10.0, *decayDBFS/20.0)

	samples := make([]float32, 0, totalFrames*2)
	framesRendered := 0
	released := false
	for framesRendered < totalFrames {
		framesToRender := blockSize
		if framesRendered+framesToRender > totalFrames {
			framesToRender = totalFrames - framesRendered
		}
		if !released && releaseAtFrame >= 0 && framesRendered >= releaseAtFrame {
			p.NoteOff(id)
			released = true
		}

		block := p.Process(framesToRender)
		samples = append(samples, block...)
		framesRendered += framesToRender

		if autoStop && released && stereoRMS(block) < thresholdLin {
			fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n",
				framesRendered, float64(framesRendered)/float64(cfg.SampleRate), *decayDBFS)
			break
		}
	}

	if err := audiofile.WriteStereoInterleavedWAV(*output, samples, cfg.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, framesRendered)
}

func stereoRMS(interleaved []float32) float64 {
	if len(interleaved) == 0 {
		return 0
	}
	var sum float64
	for _, s := range interleaved {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(interleaved)))
}
