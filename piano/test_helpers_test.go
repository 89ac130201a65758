package piano

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/sample"
	"github.com/cwbudde/piano-sampler/state"
)

const testRate = 8000

var quietLogger = log.New(io.Discard, "", 0)

// constSample returns a mono sample of n frames at amplitude amp with the
// onset at frame 0.
func constSample(id note.ID, amp float32, n int) *sample.Sample {
	ch := make([]float32, n)
	for i := range ch {
		ch[i] = amp
	}
	return &sample.Sample{Note: id, Dynamics: "ff", SampleRate: testRate, Channels: [][]float32{ch}}
}

// fakeSource serves samples immediately (ready) or after gate is closed.
type fakeSource struct {
	mu      sync.Mutex
	samples map[note.ID]*sample.Sample
	ready   map[note.ID]bool
	fail    error
	gate    chan struct{}
	loads   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		samples: make(map[note.ID]*sample.Sample),
		ready:   make(map[note.ID]bool),
		gate:    make(chan struct{}),
	}
}

func (f *fakeSource) add(s *sample.Sample, ready bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[s.Note] = s
	f.ready[s.Note] = ready
}

func (f *fakeSource) Peek(id note.ID) (*sample.Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready[id] {
		return nil, false
	}
	return f.samples[id], true
}

func (f *fakeSource) Load(ctx context.Context, id note.ID) (*sample.Sample, error) {
	f.mu.Lock()
	f.loads++
	fail := f.fail
	f.mu.Unlock()
	select {
	case <-f.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if fail != nil {
		return nil, &sample.LoadError{Note: id, Err: fail}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.samples[id]
	if !ok {
		return nil, &sample.LoadError{Note: id, Err: errors.New("missing")}
	}
	f.ready[id] = true
	return s, nil
}

func (f *fakeSource) open() { close(f.gate) }

func newTestPiano(t *testing.T, src SampleSource, hub *state.Hub) *Piano {
	t.Helper()
	p := NewPiano(testRate, NewDefaultParams(), src, hub, quietLogger)
	t.Cleanup(p.Close)
	return p
}

// waitQueued blocks until the engine has n queued messages.
func waitQueued(t *testing.T, p *Piano, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(p.inbox) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d queued messages", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func peakAbs(x []float32) float32 {
	var p float32
	for _, v := range x {
		if a := float32(math.Abs(float64(v))); a > p {
			p = a
		}
	}
	return p
}
