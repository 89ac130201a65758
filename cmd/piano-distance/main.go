package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/cwbudde/piano-sampler/analysis"
	"github.com/cwbudde/piano-sampler/internal/audiofile"
	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/preset"
)

func main() {
	noteName := flag.String("note", "C4", "Note to play through the engine")
	velocity := flag.Int("velocity", 128, "Velocity (0-128)")
	referencePath := flag.String("reference", "", "Reference WAV/OGG path; if empty, the note's own sample is the reference")
	presetPath := flag.String("preset", "", "Preset JSON/YAML file path (optional)")
	assets := flag.String("assets", "", "Sample directory or URL override (optional)")
	sampleRate := flag.Int("sample-rate", 0, "Analysis sample rate in Hz (0 = preset value)")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Stop rendering once block RMS stays below this dBFS")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required for stop")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum rendered duration in seconds")
	maxDuration := flag.Float64("max-duration", 30.0, "Maximum rendered duration in seconds")
	releaseAfter := flag.Float64("release-after", -1, "Send NoteOff after this many seconds (negative = hold until the sample ends)")
	timeout := flag.Duration("timeout", 30*time.Second, "Sample load timeout")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	cfg := preset.Default()
	if *presetPath != "" {
		var err error
		cfg, err = preset.Load(*presetPath)
		if err != nil {
			die("failed to load preset %q: %v", *presetPath, err)
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
		die("%v", err)
	}
	if !cfg.Range.Contains(id) {
		die("note %s outside range %s..%s", id, cfg.Range.Low, cfg.Range.High)
	}

	cache := cfg.NewCache(nil)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	s, err := cache.Load(ctx, id)
	cancel()
	if err != nil {
		die("failed to load sample: %v", err)
	}

	var ref []float64
	if *referencePath != "" {
		ref, err = readMono(*referencePath, cfg.SampleRate)
		if err != nil {
			die("failed to read reference: %v", err)
		}
	} else {
		ref = analysis.Mono(s.Channels)
	}

	p := cfg.NewPiano(cache, nil, nil)
	defer p.Close()
	stereo := render(p, id, *velocity, renderOptions{
		DecayDBFS:       *decayDBFS,
		DecayHoldBlocks: *decayHoldBlocks,
		MinDuration:     *minDuration,
		MaxDuration:     *maxDuration,
		ReleaseAfter:    *releaseAfter,
	})
	if *writeCandidate != "" {
		if err := audiofile.WriteStereoInterleavedWAV(*writeCandidate, stereo, cfg.SampleRate); err != nil {
			die("failed to write candidate wav: %v", err)
		}
	}

	metrics := analysis.Compare(ref, analysis.MonoInterleaved(stereo), cfg.SampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Note:             %s (%s), onset %.3fs\n", id, s.Dynamics, s.Onset)
	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Println()
	fmt.Printf("Time RMSE:        %.6f\n", metrics.TimeRMSE)
	fmt.Printf("Envelope RMSE:    %.2f dB\n", metrics.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.2f dB\n", metrics.SpectralRMSEDB)
	fmt.Printf("Decay slopes:     ref=%.1f dB/s  cand=%.1f dB/s (diff %.1f)\n",
		metrics.RefDecayDBPerS, metrics.CandDecayDBPerS, metrics.DecayDiffDBPerS)
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
}

func readMono(path string, sampleRate int) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pcm, err := audiofile.Decode(path, data)
	if err != nil {
		return nil, err
	}
	pcm, err = audiofile.Resample(pcm, sampleRate)
	if err != nil {
		return nil, err
	}
	return analysis.Mono(pcm.Channels), nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
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
