package analysis

import (
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// Metrics contains distance and similarity measurements between a source
// recording and a rendering of it.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE        float64 `json:"time_rmse"`
	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	RefDecayDBPerS  float64 `json:"ref_decay_db_per_s"`
	CandDecayDBPerS float64 `json:"cand_decay_db_per_s"`
	DecayDiffDBPerS float64 `json:"decay_diff_db_per_s"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

const (
	envFrame       = 256
	envHop         = 128
	maxSpectrum    = 4096
	minSpectrum    = 512
	minAligned     = 256
	maxCompareSecs = 12
)

// Compare aligns candidate to reference by cross-correlation and returns
// objective distance metrics and a combined score in [0,1] (0 = identical).
// Both inputs are mono and share sampleRate.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		return m
	}
	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	maxLag := sampleRate / 2
	maxLag = min(maxLag, len(ref)-1, len(cand)-1)
	maxLag = max(maxLag, 1)
	lag := estimateLag(ref, cand, maxLag)
	m.LagSamples = lag

	refA, candA := alignByLag(ref, cand, lag)
	n := min(len(refA), len(candA), sampleRate*maxCompareSecs)
	if n < minAligned {
		return m
	}
	refA = refA[:n]
	candA = candA[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(refA, candA)

	refEnv := rmsEnvelope(refA, envFrame, envHop)
	candEnv := rmsEnvelope(candA, envFrame, envHop)
	if envN := min(len(refEnv), len(candEnv)); envN > 0 {
		diff := make([]float64, envN)
		for i := range diff {
			diff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
		}
		m.EnvelopeRMSEDB = rms1(diff)
	}

	m.SpectralRMSEDB = spectralRMSEDB(refA, candA)

	hopSec := float64(envHop) / float64(sampleRate)
	m.RefDecayDBPerS = decaySlopeDBPerS(refEnv, hopSec)
	m.CandDecayDBPerS = decaySlopeDBPerS(candEnv, hopSec)
	if isFinite(m.RefDecayDBPerS) && isFinite(m.CandDecayDBPerS) {
		m.DecayDiffDBPerS = math.Abs(m.RefDecayDBPerS - m.CandDecayDBPerS)
	}

	timeNorm := clamp01(m.TimeRMSE / 0.25)
	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	decNorm := clamp01(m.DecayDiffDBPerS / 40.0)
	m.Score = clamp01(0.30*timeNorm + 0.25*envNorm + 0.30*specNorm + 0.15*decNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i, v := range x {
		if math.Abs(v) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	out := make([]float64, len(x))
	r := rms1(x)
	if r <= 1e-12 {
		copy(out, x)
		return out
	}
	g := target / r
	for i, v := range x {
		out[i] = v * g
	}
	return out
}

// estimateLag returns the lag in [-maxLag, maxLag] maximizing
// sum(ref[i+lag] * cand[i]). The correlation is computed as the FFT
// convolution of ref with reversed cand.
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	a := make([]float32, len(ref))
	for i, v := range ref {
		a[i] = float32(v)
	}
	b := make([]float32, len(cand))
	for i, v := range cand {
		b[len(cand)-1-i] = float32(v)
	}
	corr := make([]float32, len(a)+len(b)-1)
	if err := algofft.ConvolveReal(corr, a, b); err != nil {
		return 0
	}

	zero := len(cand) - 1
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		k := zero + lag
		if k < 0 || k >= len(corr) {
			continue
		}
		if v := float64(corr[k]); v > best {
			best = v
			bestLag = lag
		}
	}
	return bestLag
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}

func rmse(a []float64, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := range out {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

// spectralRMSEDB compares Hann-windowed magnitude spectra of the first
// power-of-two block (512..4096 frames) of both signals.
func spectralRMSEDB(a []float64, b []float64) float64 {
	aw, bw, ok := spectralWindowedInputs(a, b)
	if !ok {
		return 0
	}
	n := len(aw)
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return 0
	}
	specA := make([]complex128, n/2+1)
	specB := make([]complex128, n/2+1)
	plan.Forward(specA, aw)
	plan.Forward(specB, bw)

	bins := n / 2
	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(cmplxAbs(specA[k])) - linToDB(cmplxAbs(specB[k]))
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

func spectralWindowedInputs(a []float64, b []float64) ([]float64, []float64, bool) {
	avail := min(len(a), len(b), maxSpectrum)
	if avail < minSpectrum {
		return nil, nil, false
	}
	n := minSpectrum
	for n*2 <= avail {
		n *= 2
	}
	aw := make([]float64, n)
	bw := make([]float64, n)
	for i := 0; i < n; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		aw[i] = a[i] * w
		bw[i] = b[i] * w
	}
	return aw, bw, true
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

// decaySlopeDBPerS fits a line to the envelope in dB from its peak down to
// 60 dB below it.
func decaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak := -math.MaxFloat64
	peakIdx := 0
	for i, v := range env {
		if db := linToDB(v); db > peak {
			peak = db
			peakIdx = i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	threshold := peak - 60.0
	end := len(env)
	for i := start; i < len(env); i++ {
		if linToDB(env[i]) < threshold {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := linToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Mono mixes channels down to one float64 signal.
func Mono(channels [][]float32) []float64 {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	out := make([]float64, n)
	scale := 1.0 / float64(len(channels))
	for _, ch := range channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += float64(ch[i]) * scale
		}
	}
	return out
}

// MonoInterleaved mixes interleaved stereo frames down to mono.
func MonoInterleaved(stereo []float32) []float64 {
	out := make([]float64, len(stereo)/2)
	for i := range out {
		out[i] = 0.5 * (float64(stereo[2*i]) + float64(stereo[2*i+1]))
	}
	return out
}
