package piano

import (
	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/sample"
)

// VoiceState is the envelope stage of a voice.
type VoiceState int

const (
	Idle VoiceState = iota
	Attacking
	Sustaining
	Releasing
)

func (s VoiceState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attacking:
		return "attacking"
	case Sustaining:
		return "sustaining"
	case Releasing:
		return "releasing"
	}
	return "unknown"
}

// Voice plays one sample for one note.
type Voice struct {
	note   note.ID
	sample *sample.Sample
	pos    int // next frame of sample data
	gain   float32
	state  VoiceState
	age    int // frames rendered since start

	attackFrames int

	releaseLevel  float32
	releaseAge    int
	releaseTau    float32 // in frames
	releaseFrames int

	ended bool // ran out of sample data
}

// NewVoice starts playback of s at its onset. The gain ramps linearly
// from zero to gain over attackSeconds.
func NewVoice(sampleRate int, id note.ID, s *sample.Sample, gain, attackSeconds float32) *Voice {
	attack := secondsToFrames(attackSeconds, sampleRate)
	if attack < 1 {
		attack = 1
	}
	return &Voice{
		note:         id,
		sample:       s,
		pos:          s.OnsetFrame(),
		gain:         gain,
		state:        Attacking,
		attackFrames: attack,
	}
}

// Note returns the note this voice plays.
func (v *Voice) Note() note.ID { return v.note }

// State returns the envelope stage.
func (v *Voice) State() VoiceState { return v.state }

// Live reports whether the voice still produces sound.
func (v *Voice) Live() bool { return v.state != Idle }

// Held reports whether the voice has not been released yet.
func (v *Voice) Held() bool { return v.state == Attacking || v.state == Sustaining }

// Ended reports whether the voice stopped because the sample ran out.
func (v *Voice) Ended() bool { return v.ended }

// Level returns the envelope gain for the next frame.
func (v *Voice) Level() float32 {
	switch v.state {
	case Attacking:
		return v.gain * float32(v.age) / float32(v.attackFrames)
	case Sustaining:
		return v.gain
	case Releasing:
		return v.releaseLevel * approx.FastExp(-float32(v.releaseAge)/v.releaseTau)
	}
	return 0
}

// Release starts an exponential decay from the current level with the
// given time constant. The voice goes idle after releaseTimeConstants of
// them.
func (v *Voice) Release(sampleRate int, tauSeconds float32) {
	if !v.Held() {
		return
	}
	v.releaseLevel = v.Level()
	v.releaseTau = maxf(tauSeconds*float32(sampleRate), 1)
	v.releaseFrames = int(v.releaseTau * releaseTimeConstants)
	v.releaseAge = 0
	v.state = Releasing
}

// Cut silences the voice immediately.
func (v *Voice) Cut() {
	v.state = Idle
}

// Render adds numFrames of this voice into an interleaved stereo buffer.
// Mono samples feed both channels.
func (v *Voice) Render(out []float32, numFrames int) {
	if v.state == Idle {
		return
	}
	left := v.sample.Channels[0]
	right := left
	if len(v.sample.Channels) > 1 {
		right = v.sample.Channels[1]
	}
	for i := 0; i < numFrames; i++ {
		if v.pos >= len(left) {
			v.ended = true
			v.state = Idle
			return
		}
		g := v.Level()
		out[i*2] += left[v.pos] * g
		out[i*2+1] += right[v.pos] * g
		v.pos++
		v.age++

		switch v.state {
		case Attacking:
			if v.age >= v.attackFrames {
				v.state = Sustaining
			}
		case Releasing:
			v.releaseAge++
			if v.releaseAge >= v.releaseFrames {
				v.state = Idle
				return
			}
		}
	}
}
