// Package output streams rendered audio to the sound card.
package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// DefaultBufferSize is the device buffer; it bounds input-to-sound latency.
const DefaultBufferSize = 20 * time.Millisecond

// Renderer produces interleaved stereo float32 frames; *piano.Piano
// implements it.
type Renderer interface {
	Process(numFrames int) []float32
}

// Reader adapts a Renderer to io.Reader as 32-bit little-endian float
// stereo PCM.
type Reader struct {
	r       Renderer
	pending []byte
}

// NewReader returns a Reader pulling audio from r.
func NewReader(r Renderer) *Reader {
	return &Reader{r: r}
}

// Read renders as many whole frames as fit into p. It never returns an
// error; the stream is endless.
func (s *Reader) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		frames := len(p) / 8
		if frames == 0 {
			frames = 1
		}
		samples := s.r.Process(frames)
		buf := make([]byte, len(samples)*4)
		for i, v := range samples {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		s.pending = buf
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Player plays a Renderer on the default audio device.
type Player struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool
}

// NewPlayer opens the audio device at sampleRate. bufferSize <= 0 selects
// DefaultBufferSize.
func NewPlayer(sampleRate int, bufferSize time.Duration, r Renderer) (*Player, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready
	return &Player{ctx: ctx, player: ctx.NewPlayer(NewReader(r))}, nil
}

// Start begins playback.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

// Close stops playback.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	p.started = false
	return err
}
