package analysis

import "math"

// Onset detection defaults.
const (
	DefaultOnsetProbes    = 5000
	DefaultOnsetThreshold = 0.01
	DefaultOnsetLeadIn    = 0.02 // seconds kept ahead of the strike transient
)

// OnsetDetector locates the start of the hammer strike in a recorded note.
type OnsetDetector struct {
	Probes    int     // evenly spaced probe points across the buffer
	Threshold float32 // absolute amplitude that marks the strike
	LeadIn    float64 // seconds subtracted from the detected onset
}

// NewOnsetDetector returns a detector with the default constants.
func NewOnsetDetector() OnsetDetector {
	return OnsetDetector{
		Probes:    DefaultOnsetProbes,
		Threshold: DefaultOnsetThreshold,
		LeadIn:    DefaultOnsetLeadIn,
	}
}

// Detect returns the onset in seconds of the first-channel data sampled at
// sampleRate. The result is 0 when no probe exceeds the threshold and is
// always within [0, duration).
func (d OnsetDetector) Detect(data []float32, sampleRate int) float64 {
	n := len(data)
	if n == 0 || sampleRate <= 0 {
		return 0
	}
	probes := d.Probes
	if probes <= 0 {
		probes = DefaultOnsetProbes
	}
	threshold := d.Threshold
	if threshold < 0 {
		threshold = 0
	}
	for i := 0; i < probes; i++ {
		idx := int(int64(i) * int64(n) / int64(probes))
		if abs32(data[idx]) > threshold {
			seconds := float64(idx)/float64(sampleRate) - math.Max(d.LeadIn, 0)
			if seconds < 0 {
				return 0
			}
			return seconds
		}
	}
	return 0
}

// DetectOnset runs the default detector.
func DetectOnset(data []float32, sampleRate int) float64 {
	return NewOnsetDetector().Detect(data, sampleRate)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
