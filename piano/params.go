package piano

import (
	"github.com/cwbudde/piano-sampler/dsp"
	"github.com/cwbudde/piano-sampler/note"
)

// Params holds all preset parameters.
type Params struct {
	PerNote map[note.ID]*NoteParams

	BaseGain   float32 // gain at full velocity
	OutputGain float32

	AttackSeconds  float32 // linear fade-in from silence
	ReleaseSeconds float32 // time constant of the exponential release

	Compressor dsp.CompressorParams
}

// NoteParams holds parameters for a specific note.
type NoteParams struct {
	Gain float32 // replaces BaseGain when > 0
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		PerNote:        make(map[note.ID]*NoteParams),
		BaseGain:       0.66,
		OutputGain:     1.0,
		AttackSeconds:  0.0001,
		ReleaseSeconds: 0.25,
		Compressor:     dsp.DefaultCompressorParams(),
	}
}

// GainFor returns the full-velocity gain of id.
func (p *Params) GainFor(id note.ID) float32 {
	if np, ok := p.PerNote[id]; ok && np != nil && np.Gain > 0 {
		return np.Gain
	}
	return p.BaseGain
}

// VelocityGain maps a 0-128 velocity to the target gain of id.
func (p *Params) VelocityGain(id note.ID, velocity int) float32 {
	return clampf(float32(velocity)/128, 0, 1) * p.GainFor(id)
}
