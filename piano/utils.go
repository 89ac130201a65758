package piano

// releaseTimeConstants is how many time constants a release tail lasts
// before the voice is dropped (about -61 dB).
const releaseTimeConstants = 7

func secondsToFrames(seconds float32, sampleRate int) int {
	return int(seconds*float32(sampleRate) + 0.5)
}

func clampf(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func maxf(a float32, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
