package dsp

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const ln10Over20 = 0.11512925464970229

// CompressorParams configures the shared output compressor.
type CompressorParams struct {
	Enabled        bool
	ThresholdDB    float32
	KneeDB         float32
	Ratio          float32
	AttackSeconds  float32
	ReleaseSeconds float32
	MakeupDB       float32
}

// DefaultCompressorParams returns a gentle limiter that leaves single
// notes untouched and tames dense chords.
func DefaultCompressorParams() CompressorParams {
	return CompressorParams{
		Enabled:        true,
		ThresholdDB:    -6,
		KneeDB:         6,
		Ratio:          8,
		AttackSeconds:  0.003,
		ReleaseSeconds: 0.25,
		MakeupDB:       0,
	}
}

// Compressor is a stereo-linked feed-forward compressor with a soft knee
// (no heap allocations in Process).
type Compressor struct {
	params      CompressorParams
	attackCoef  float32
	releaseCoef float32
	envDB       float32 // smoothed gain reduction, <= 0
}

// NewCompressor creates a compressor for the given sample rate.
func NewCompressor(sampleRate int, p CompressorParams) *Compressor {
	if p.Ratio < 1 {
		p.Ratio = 1
	}
	if p.KneeDB < 0 {
		p.KneeDB = 0
	}
	return &Compressor{
		params:      p,
		attackCoef:  timeCoef(p.AttackSeconds, sampleRate),
		releaseCoef: timeCoef(p.ReleaseSeconds, sampleRate),
	}
}

func timeCoef(seconds float32, sampleRate int) float32 {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return float32(math.Exp(-1.0 / (float64(seconds) * float64(sampleRate))))
}

// Params returns the active parameters.
func (c *Compressor) Params() CompressorParams { return c.params }

// GainReductionDB returns the current smoothed gain reduction.
func (c *Compressor) GainReductionDB() float32 { return c.envDB }

// Process compresses interleaved stereo samples in place.
func (c *Compressor) Process(interleaved []float32) {
	if !c.params.Enabled {
		return
	}
	for i := 0; i+1 < len(interleaved); i += 2 {
		l, r := interleaved[i], interleaved[i+1]
		peak := maxf(absf(l), absf(r))
		target := c.gainComputer(peak)
		coef := c.releaseCoef
		if target < c.envDB {
			coef = c.attackCoef
		}
		c.envDB = FlushDenormals(target + (c.envDB-target)*coef)
		g := dbToGain(c.envDB + c.params.MakeupDB)
		interleaved[i] = l * g
		interleaved[i+1] = r * g
	}
}

// gainComputer returns the static gain reduction in dB for a peak level.
func (c *Compressor) gainComputer(peak float32) float32 {
	if peak <= 1e-9 {
		return 0
	}
	levelDB := float32(20 * math.Log10(float64(peak)))
	over := levelDB - c.params.ThresholdDB
	slope := 1/c.params.Ratio - 1
	w := c.params.KneeDB
	switch {
	case 2*over < -w:
		return 0
	case w > 0 && 2*absf(over) <= w:
		x := over + w/2
		return slope * x * x / (2 * w)
	default:
		return slope * over
	}
}

// Reset clears the envelope state.
func (c *Compressor) Reset() {
	c.envDB = 0
}

func dbToGain(db float32) float32 {
	if db == 0 {
		return 1
	}
	return approx.FastExp(db * ln10Over20)
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
