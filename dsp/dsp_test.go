package dsp

import (
	"math"
	"testing"
)

func stereoSine(amp float32, frames int, sampleRate int) []float32 {
	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := amp * float32(math.Sin(2*math.Pi*220*float64(i)/float64(sampleRate)))
		out[i*2] = v
		out[i*2+1] = v
	}
	return out
}

func peakOf(x []float32) float32 {
	var p float32
	for _, v := range x {
		if a := absf(v); a > p {
			p = a
		}
	}
	return p
}

func TestCompressorLeavesQuietSignalAlone(t *testing.T) {
	c := NewCompressor(48000, DefaultCompressorParams())
	buf := stereoSine(0.3, 4800, 48000)
	c.Process(buf)
	if p := peakOf(buf); math.Abs(float64(p-0.3)) > 1e-3 {
		t.Fatalf("expected untouched peak 0.3, got %f", p)
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	c := NewCompressor(48000, DefaultCompressorParams())
	buf := stereoSine(1.5, 48000, 48000)
	c.Process(buf)
	tail := buf[len(buf)/2:]
	if p := peakOf(tail); p >= 1.0 {
		t.Fatalf("expected compressed tail peak below 1.0, got %f", p)
	}
	if c.GainReductionDB() >= 0 {
		t.Fatalf("expected active gain reduction, got %f dB", c.GainReductionDB())
	}
	c.Reset()
	if c.GainReductionDB() != 0 {
		t.Fatalf("Reset should clear envelope")
	}
}

func TestCompressorDisabledIsBypass(t *testing.T) {
	p := DefaultCompressorParams()
	p.Enabled = false
	c := NewCompressor(48000, p)
	buf := stereoSine(1.5, 480, 48000)
	want := append([]float32(nil), buf...)
	c.Process(buf)
	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d changed in bypass: %f != %f", i, buf[i], want[i])
		}
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 {
		t.Fatalf("expected denormal flush")
	}
	if FlushDenormals(0.5) != 0.5 {
		t.Fatalf("normal values must pass")
	}
}
