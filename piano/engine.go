package piano

import (
	"context"
	"log"
	"sync"

	"github.com/cwbudde/piano-sampler/dsp"
	"github.com/cwbudde/piano-sampler/input"
	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/sample"
	"github.com/cwbudde/piano-sampler/state"
)

// QueueSize is the capacity of the engine's message queue.
const QueueSize = 1024

// SampleSource provides decoded samples; *sample.Cache implements it.
type SampleSource interface {
	Load(ctx context.Context, id note.ID) (*sample.Sample, error)
	Peek(id note.ID) (*sample.Sample, bool)
}

type (
	noteOnMsg struct {
		note     note.ID
		velocity int
	}
	noteOffMsg struct {
		note note.ID
	}
	allNotesOffMsg struct{}
	loadedMsg      struct {
		note     note.ID
		velocity int
		gen      uint64
		sample   *sample.Sample
		err      error
	}
)

// Piano is the voice manager. NoteOn, NoteOff and friends may be called
// from any goroutine; they only queue a message. All voice state is
// owned by Process, which must be called from a single goroutine.
type Piano struct {
	sampleRate int
	params     *Params
	samples    SampleSource
	hub        *state.Hub
	logger     *log.Logger
	compressor *dsp.Compressor

	inbox     chan any
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	voices  map[note.ID]*Voice
	pressed map[note.ID]bool
	shown   map[note.ID]bool
	gen     map[note.ID]uint64
	clock   int64
}

// NewPiano creates a new piano engine. hub and logger may be nil.
func NewPiano(sampleRate int, params *Params, samples SampleSource, hub *state.Hub, logger *log.Logger) *Piano {
	if params == nil {
		params = NewDefaultParams()
	}
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Piano{
		sampleRate: sampleRate,
		params:     params,
		samples:    samples,
		hub:        hub,
		logger:     logger,
		compressor: dsp.NewCompressor(sampleRate, params.Compressor),
		inbox:      make(chan any, QueueSize),
		ctx:        ctx,
		cancel:     cancel,
		voices:     make(map[note.ID]*Voice),
		pressed:    make(map[note.ID]bool),
		shown:      make(map[note.ID]bool),
		gen:        make(map[note.ID]uint64),
	}
}

// SampleRate returns the output sample rate.
func (p *Piano) SampleRate() int { return p.sampleRate }

// NoteOn queues a note-on.
func (p *Piano) NoteOn(id note.ID, velocity int) {
	p.send(noteOnMsg{note: id, velocity: velocity})
}

// NoteOff queues a note-off.
func (p *Piano) NoteOff(id note.ID) {
	p.send(noteOffMsg{note: id})
}

// AllNotesOff queues a release of every pressed note.
func (p *Piano) AllNotesOff() {
	p.send(allNotesOffMsg{})
}

// Dispatch queues a normalized input event.
func (p *Piano) Dispatch(ev input.Event) {
	if ev.On {
		p.NoteOn(ev.Note, ev.Velocity)
	} else {
		p.NoteOff(ev.Note)
	}
}

// Close stops pending load goroutines from posting results.
func (p *Piano) Close() {
	p.closeOnce.Do(p.cancel)
}

func (p *Piano) send(msg any) {
	if !trySend(p.inbox, msg) {
		p.logger.Printf("piano: message queue full, dropped %T", msg)
	}
}

func trySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// Process renders a block of audio samples (stereo interleaved).
func (p *Piano) Process(numFrames int) []float32 {
	p.processMessages()

	out := make([]float32, numFrames*2)
	for id, v := range p.voices {
		v.Render(out, numFrames)
		if v.Live() {
			continue
		}
		delete(p.voices, id)
		if v.Ended() && p.pressed[id] {
			// Played to the end while still held.
			p.release(id)
		}
	}

	p.compressor.Process(out)
	if g := p.params.OutputGain; g != 1 {
		for i := range out {
			out[i] *= g
		}
	}
	p.clock += int64(numFrames)
	return out
}

// Clock returns the number of frames rendered so far.
func (p *Piano) Clock() int64 { return p.clock }

// Voice returns the live voice of id, if any. Only safe on the goroutine
// that calls Process.
func (p *Piano) Voice(id note.ID) (*Voice, bool) {
	v, ok := p.voices[id]
	return v, ok
}

// VoiceCount returns the number of live voices. Only safe on the
// goroutine that calls Process.
func (p *Piano) VoiceCount() int { return len(p.voices) }

func (p *Piano) processMessages() {
	for {
		select {
		case msg := <-p.inbox:
			switch m := msg.(type) {
			case noteOnMsg:
				p.noteOn(m.note, m.velocity)
			case noteOffMsg:
				p.noteOff(m.note)
			case allNotesOffMsg:
				for id := range p.pressed {
					p.noteOff(id)
				}
			case loadedMsg:
				p.loaded(m)
			}
		default:
			return
		}
	}
}

func (p *Piano) noteOn(id note.ID, velocity int) {
	p.gen[id]++
	p.pressed[id] = true
	p.publish(state.Patch{Pressed: map[note.ID]bool{id: true}})

	if p.samples == nil {
		return
	}
	if s, ok := p.samples.Peek(id); ok {
		p.start(id, velocity, s)
		return
	}
	go p.load(id, velocity, p.gen[id])
}

func (p *Piano) load(id note.ID, velocity int, gen uint64) {
	s, err := p.samples.Load(p.ctx, id)
	msg := loadedMsg{note: id, velocity: velocity, gen: gen, sample: s, err: err}
	select {
	case p.inbox <- msg:
	case <-p.ctx.Done():
	}
}

func (p *Piano) loaded(m loadedMsg) {
	if m.err != nil {
		p.logger.Printf("piano: %s stays silent: %v", m.note, m.err)
		return
	}
	if !p.pressed[m.note] || p.gen[m.note] != m.gen {
		return
	}
	p.start(m.note, m.velocity, m.sample)
}

// start replaces any voice of id with a new one in a single step.
func (p *Piano) start(id note.ID, velocity int, s *sample.Sample) {
	if old, ok := p.voices[id]; ok {
		old.Cut()
	}
	gain := p.params.VelocityGain(id, velocity)
	p.voices[id] = NewVoice(p.sampleRate, id, s, gain, p.params.AttackSeconds)
	if !p.shown[id] {
		p.shown[id] = true
		p.publish(state.Patch{Active: map[note.ID]bool{id: true}})
	}
}

func (p *Piano) noteOff(id note.ID) {
	if !p.pressed[id] {
		return
	}
	p.release(id)
	if v, ok := p.voices[id]; ok {
		v.Release(p.sampleRate, p.params.ReleaseSeconds)
	}
}

// release clears the logical state of id and tells the renderer.
func (p *Piano) release(id note.ID) {
	delete(p.pressed, id)
	patch := state.Patch{Pressed: map[note.ID]bool{id: false}}
	if p.shown[id] {
		delete(p.shown, id)
		patch.Active = map[note.ID]bool{id: false}
	}
	p.publish(patch)
}

func (p *Piano) publish(patch state.Patch) {
	if p.hub != nil {
		p.hub.Update(patch)
	}
}
