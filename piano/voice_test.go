package piano

import (
	"math"
	"testing"

	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/sample"
)

func TestVoiceAttackReachesTargetGain(t *testing.T) {
	id := note.MustParse("C4")
	v := NewVoice(testRate, id, constSample(id, 1, 1000), 0.5, 0.001) // 8 frames
	out := make([]float32, 2*20)
	v.Render(out, 20)
	if out[0] != 0 {
		t.Fatalf("attack must start from silence, got %f", out[0])
	}
	if out[2*4] <= 0 || out[2*4] >= 0.5 {
		t.Fatalf("mid-attack sample should be between 0 and gain, got %f", out[2*4])
	}
	if v.State() != Sustaining {
		t.Fatalf("expected sustaining after attack, got %s", v.State())
	}
	if math.Abs(float64(out[2*19]-0.5)) > 1e-6 || out[2*19] != out[2*19+1] {
		t.Fatalf("sustain level mismatch: L=%f R=%f", out[2*19], out[2*19+1])
	}
}

func TestVoiceStartsAtOnset(t *testing.T) {
	id := note.MustParse("A0")
	s := constSample(id, 0, 1000)
	for i := 500; i < 1000; i++ {
		s.Channels[0][i] = 1
	}
	s.Onset = 500.0 / testRate
	v := NewVoice(testRate, id, s, 1, 0)
	out := make([]float32, 2*4)
	v.Render(out, 4)
	if out[2*3] != 1 {
		t.Fatalf("playback should begin at the onset, got %f", out[2*3])
	}
}

func TestVoiceReleaseDecaysAndGoesIdle(t *testing.T) {
	id := note.MustParse("C4")
	v := NewVoice(testRate, id, constSample(id, 1, testRate*2), 1, 0)
	warm := make([]float32, 2*16)
	v.Render(warm, 16)

	v.Release(testRate, 0.01) // 80-frame time constant
	if v.State() != Releasing || v.Held() {
		t.Fatalf("expected releasing, got %s", v.State())
	}
	out := make([]float32, 2*80)
	v.Render(out, 80)
	if out[0] < 0.99 {
		t.Fatalf("release must start from the current level, got %f", out[0])
	}
	// One time constant later the level is about 1/e.
	if got := v.Level(); got < 0.33 || got > 0.41 {
		t.Fatalf("expected ~0.37 after one time constant, got %f", got)
	}
	tail := make([]float32, 2*testRate)
	v.Render(tail, testRate)
	if v.Live() {
		t.Fatalf("voice should be idle after the release tail")
	}
	if v.Ended() {
		t.Fatalf("release end is not a natural end")
	}
}

func TestVoiceNaturalEndAndStereo(t *testing.T) {
	id := note.MustParse("C4")
	s := &sample.Sample{Note: id, SampleRate: testRate, Channels: [][]float32{{1, 1, 1}, {-1, -1, -1}}}
	v := NewVoice(testRate, id, s, 1, 0)
	out := make([]float32, 2*8)
	v.Render(out, 8)
	if out[2] != 1 || out[3] != -1 {
		t.Fatalf("stereo sample must keep its channels, got %v", out[:4])
	}
	if v.Live() || !v.Ended() {
		t.Fatalf("expected natural end, state=%s ended=%v", v.State(), v.Ended())
	}
	if out[2*4] != 0 {
		t.Fatalf("no output after the sample ends")
	}
}

func TestVoiceCutIsImmediate(t *testing.T) {
	id := note.MustParse("C4")
	v := NewVoice(testRate, id, constSample(id, 1, 1000), 1, 0)
	v.Cut()
	out := make([]float32, 2*8)
	v.Render(out, 8)
	if peakAbs(out) != 0 {
		t.Fatalf("cut voice must be silent")
	}
	v.Release(testRate, 0.25)
	if v.State() != Idle {
		t.Fatalf("release of an idle voice is a no-op, got %s", v.State())
	}
}
