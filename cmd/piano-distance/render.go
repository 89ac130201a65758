package main

import (
	"math"

	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/piano"
)

const blockSize = 128

type renderOptions struct {
	DecayDBFS       float64
	DecayHoldBlocks int
	MinDuration     float64
	MaxDuration     float64
	ReleaseAfter    float64 // negative holds the key
}

// render plays one note and returns interleaved stereo output. Rendering
// stops at MaxDuration, or once MinDuration has passed and DecayHoldBlocks
// consecutive blocks fall below DecayDBFS.
func render(p *piano.Piano, id note.ID, velocity int, o renderOptions) []float32 {
	sr := float64(p.SampleRate())
	if o.DecayHoldBlocks < 1 {
		o.DecayHoldBlocks = 1
	}
	o.MinDuration = math.Max(o.MinDuration, 0)
	o.MaxDuration = math.Max(o.MaxDuration, o.MinDuration)

	minFrames := int(sr * o.MinDuration)
	maxFrames := max(int(sr*o.MaxDuration), 1)
	releaseAtFrame := -1
	if o.ReleaseAfter >= 0 {
		releaseAtFrame = int(sr * o.ReleaseAfter)
	}
	threshold := math.Pow(10.0, o.DecayDBFS/20.0)

	p.NoteOn(id, velocity)
	stereo := make([]float32, 0, maxFrames*2)
	framesRendered := 0
	belowCount := 0
	released := false
	for framesRendered < maxFrames {
		n := min(blockSize, maxFrames-framesRendered)
		if !released && releaseAtFrame >= 0 && framesRendered >= releaseAtFrame {
			p.NoteOff(id)
			released = true
		}
		block := p.Process(n)
		stereo = append(stereo, block...)
		framesRendered += n

		if framesRendered < minFrames {
			continue
		}
		if stereoRMS(block) < threshold {
			belowCount++
			if belowCount >= o.DecayHoldBlocks {
				break
			}
		} else {
			belowCount = 0
		}
	}
	return stereo
}
