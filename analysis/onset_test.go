package analysis

import (
	"math"
	"testing"
)

func silenceThenTone(sampleRate int, silence float64, total float64) []float32 {
	n := int(total * float64(sampleRate))
	start := int(silence * float64(sampleRate))
	out := make([]float32, n)
	for i := start; i < n; i++ {
		out[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i-start)/float64(sampleRate)+math.Pi/2))
	}
	return out
}

func TestDetectOnsetFindsStrikeAfterSilence(t *testing.T) {
	sr := 48000
	data := silenceThenTone(sr, 0.5, 2.0)
	got := DetectOnset(data, sr)
	// Probe spacing is 2s/5000 = 0.4ms; the lead-in pulls the result back by 20ms.
	want := 0.5 - DefaultOnsetLeadIn
	if math.Abs(got-want) > 0.001 {
		t.Fatalf("onset mismatch: got=%f want~%f", got, want)
	}
}

func TestDetectOnsetIsIdempotent(t *testing.T) {
	sr := 44100
	data := silenceThenTone(sr, 0.123, 1.0)
	first := DetectOnset(data, sr)
	for i := 0; i < 5; i++ {
		if again := DetectOnset(data, sr); again != first {
			t.Fatalf("call %d returned %f, first call returned %f", i, again, first)
		}
	}
}

func TestDetectOnsetSilenceIsZero(t *testing.T) {
	data := make([]float32, 48000)
	for i := range data {
		data[i] = 0.005
	}
	if got := DetectOnset(data, 48000); got != 0 {
		t.Fatalf("expected 0 for sub-threshold buffer, got %f", got)
	}
	if got := DetectOnset(nil, 48000); got != 0 {
		t.Fatalf("expected 0 for empty buffer, got %f", got)
	}
}

func TestDetectOnsetLeadInClampsAtZero(t *testing.T) {
	sr := 48000
	data := silenceThenTone(sr, 0.005, 1.0)
	if got := DetectOnset(data, sr); got != 0 {
		t.Fatalf("expected lead-in to clamp early onset to 0, got %f", got)
	}
}

func TestDetectOnsetAlwaysWithinDuration(t *testing.T) {
	sr := 8000
	for _, frames := range []int{1, 3, 17, 4999, 5000, 5001, 12345} {
		data := make([]float32, frames)
		data[frames-1] = 1
		d := OnsetDetector{Probes: DefaultOnsetProbes, Threshold: DefaultOnsetThreshold}
		got := d.Detect(data, sr)
		dur := float64(frames) / float64(sr)
		if got < 0 || got >= dur {
			t.Fatalf("frames=%d: onset %f outside [0,%f)", frames, got, dur)
		}
	}
}
