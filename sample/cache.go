// Package sample loads and memoizes decoded piano note recordings.
package sample

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cwbudde/piano-sampler/analysis"
	"github.com/cwbudde/piano-sampler/internal/audiofile"
	"github.com/cwbudde/piano-sampler/note"
)

// Sample is a decoded recording of one note at one dynamics layer.
type Sample struct {
	Note       note.ID
	Dynamics   string
	SampleRate int
	Channels   [][]float32
	Onset      float64 // seconds into the buffer where the strike begins
}

// Frames returns the number of sample frames.
func (s *Sample) Frames() int {
	if s == nil || len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// Duration returns the buffer length in seconds.
func (s *Sample) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return float64(s.Frames()) / float64(s.SampleRate)
}

// OnsetFrame returns the onset as a frame index.
func (s *Sample) OnsetFrame() int {
	f := int(s.Onset * float64(s.SampleRate))
	if f >= s.Frames() {
		f = s.Frames() - 1
	}
	if f < 0 {
		f = 0
	}
	return f
}

// LoadError reports a failed fetch or decode for a note.
type LoadError struct {
	Note note.ID
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load sample %s (%s): %v", e.Note, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DecodeFunc turns a fetched payload into PCM. name is the asset path and
// selects the format.
type DecodeFunc func(name string, data []byte) (*audiofile.PCM, error)

type entry struct {
	done   chan struct{}
	sample *Sample
	err    error
}

// Cache memoizes one load per note. Concurrent callers for the same note
// share a single fetch, and the outcome (including failure) is kept for
// the lifetime of the cache unless Invalidate is called.
type Cache struct {
	fetcher    Fetcher
	decode     DecodeFunc
	layout     Layout
	onset      analysis.OnsetDetector
	sampleRate int
	logger     *log.Logger

	mu      sync.Mutex
	entries map[note.ID]*entry
	fetches int
}

// Option configures a Cache.
type Option func(*Cache)

// WithDecoder replaces audiofile.Decode.
func WithDecoder(d DecodeFunc) Option { return func(c *Cache) { c.decode = d } }

// WithLayout sets the asset naming.
func WithLayout(l Layout) Option { return func(c *Cache) { c.layout = l } }

// WithOnsetDetector sets the onset detector.
func WithOnsetDetector(d analysis.OnsetDetector) Option { return func(c *Cache) { c.onset = d } }

// WithSampleRate resamples decoded audio to rate. Zero keeps the native rate.
func WithSampleRate(rate int) Option { return func(c *Cache) { c.sampleRate = rate } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option { return func(c *Cache) { c.logger = l } }

// NewCache creates a cache reading assets through f.
func NewCache(f Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: f,
		decode:  audiofile.Decode,
		layout:  DefaultLayout(),
		onset:   analysis.NewOnsetDetector(),
		logger:  log.Default(),
		entries: make(map[note.ID]*entry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Layout returns the asset naming in use.
func (c *Cache) Layout() Layout { return c.layout }

// Load returns the sample for id, starting the fetch on first use. ctx
// bounds only this caller's wait; the shared load keeps running.
func (c *Cache) Load(ctx context.Context, id note.ID) (*Sample, error) {
	e := c.start(ctx, id)
	select {
	case <-e.done:
		return e.sample, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peek returns the sample for id if it has already loaded successfully.
func (c *Cache) Peek(id note.ID) (*Sample, bool) {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-e.done:
		return e.sample, e.err == nil
	default:
		return nil, false
	}
}

// Invalidate forgets the outcome for id so the next Load fetches again. A
// load still in flight completes for its existing waiters.
func (c *Cache) Invalidate(id note.ID) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Preload starts loads for every id and waits for all of them. It returns
// the number of notes that failed.
func (c *Cache) Preload(ctx context.Context, ids []note.ID) int {
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Load(ctx, id); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return failed
}

// Fetches returns how many underlying fetches have been started.
func (c *Cache) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

func (c *Cache) start(ctx context.Context, id note.ID) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		return e
	}
	e := &entry{done: make(chan struct{})}
	c.entries[id] = e
	c.fetches++
	go c.fill(context.WithoutCancel(ctx), id, e)
	return e
}

func (c *Cache) fill(ctx context.Context, id note.ID, e *entry) {
	defer close(e.done)
	path := c.layout.Path(id)
	e.sample, e.err = c.load(ctx, id, path)
	if e.err != nil {
		c.logger.Printf("sample: %v", e.err)
	}
}

func (c *Cache) load(ctx context.Context, id note.ID, path string) (*Sample, error) {
	data, err := c.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, &LoadError{Note: id, Path: path, Err: err}
	}
	pcm, err := c.decode(path, data)
	if err != nil {
		return nil, &LoadError{Note: id, Path: path, Err: err}
	}
	if pcm.Frames() == 0 {
		return nil, &LoadError{Note: id, Path: path, Err: fmt.Errorf("%w: empty audio", audiofile.ErrDecode)}
	}
	pcm, err = audiofile.Resample(pcm, c.sampleRate)
	if err != nil {
		return nil, &LoadError{Note: id, Path: path, Err: fmt.Errorf("resample: %w", err)}
	}
	return &Sample{
		Note:       id,
		Dynamics:   c.layout.DynamicsFor(id),
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
		Onset:      c.onset.Detect(pcm.Channels[0], pcm.SampleRate),
	}, nil
}
