// Package gomidi connects hardware MIDI inputs to the note event stream.
package gomidi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/piano-sampler/input"
	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/state"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// DefaultRescanInterval is how often Run looks for added or removed devices.
const DefaultRescanInterval = time.Second

// DefaultExclude lists virtual ports that are never auto-connected.
var DefaultExclude = []string{"Midi Through", "Through Port"}

// Source lists input ports and listens on one of them.
type Source interface {
	Inputs() ([]string, error)
	Listen(name string, onMsg func([]byte), onErr func(error)) (stop func(), err error)
	Close() error
}

// DriverSource adapts a gomidi driver to Source.
type DriverSource struct {
	Driver drivers.Driver
}

// Inputs returns the names of all input ports.
func (d *DriverSource) Inputs() ([]string, error) {
	ins, err := d.Driver.Ins()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// Listen opens the named port and forwards every message to onMsg.
func (d *DriverSource) Listen(name string, onMsg func([]byte), onErr func(error)) (func(), error) {
	ins, err := d.Driver.Ins()
	if err != nil {
		return nil, err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		onMsg([]byte(msg))
	}, midi.HandleError(onErr))
	if err != nil {
		_ = found.Close()
		return nil, fmt.Errorf("listen %q: %w", name, err)
	}
	return func() {
		stop()
		_ = found.Close()
	}, nil
}

// Close shuts down the driver.
func (d *DriverSource) Close() error {
	return d.Driver.Close()
}

// Watcher keeps one MIDI input connected, reconnecting when devices come
// and go, and reports connectivity to the hub.
type Watcher struct {
	mu        sync.Mutex
	src       Source
	hub       *state.Hub
	logger    *log.Logger
	prefer    string
	exclude   []string
	onEvent   func(input.Event)
	name      string
	stop      func()
	connected bool
	present   state.Tristate

	normMu sync.Mutex
	norm   *input.MIDI
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPreferred selects the first input whose name starts with prefix
// (case-insensitive) instead of the first input found.
func WithPreferred(prefix string) Option {
	return func(w *Watcher) { w.prefer = prefix }
}

// WithExclude replaces DefaultExclude.
func WithExclude(patterns ...string) Option {
	return func(w *Watcher) { w.exclude = patterns }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher. A nil src means MIDI is unavailable on
// this host: the hub is told so and the watcher stays inert.
func NewWatcher(src Source, hub *state.Hub, valid note.Range, onEvent func(input.Event), opts ...Option) *Watcher {
	w := &Watcher{
		src:     src,
		hub:     hub,
		logger:  log.Default(),
		exclude: DefaultExclude,
		onEvent: onEvent,
		norm:    input.NewMIDI(valid),
	}
	for _, opt := range opts {
		opt(w)
	}
	if src == nil {
		w.present = state.No
		w.update(state.Patch{MIDISupported: ptr(state.No), MIDIInputPresent: ptr(state.No)})
	} else {
		w.update(state.SetMIDISupported(state.Yes))
	}
	return w
}

func ptr(t state.Tristate) *state.Tristate { return &t }

// setPresent reports connectivity only when it changes, so periodic
// rescans stay quiet.
func (w *Watcher) setPresent(v state.Tristate) {
	if w.present == v {
		return
	}
	w.present = v
	w.update(state.SetMIDIInputPresent(v))
}

func (w *Watcher) update(p state.Patch) {
	if w.hub != nil {
		w.hub.Update(p)
	}
}

// Connected returns the name of the open input, if any.
func (w *Watcher) Connected() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.name, w.connected
}

// Tick rescans the inputs once: it drops a vanished device and connects
// to a candidate when nothing is open.
func (w *Watcher) Tick() {
	if w.src == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	names, err := w.src.Inputs()
	if err != nil {
		w.logger.Printf("midi: list inputs: %v", err)
		return
	}
	names = w.filter(names)

	if w.connected {
		for _, n := range names {
			if n == w.name {
				return
			}
		}
		w.logger.Printf("midi: device %q disappeared", w.name)
		w.disconnectLocked()
		return
	}

	cand, ok := w.pick(names)
	if !ok {
		w.setPresent(state.No)
		return
	}
	stop, err := w.src.Listen(cand, w.handle, func(err error) { w.listenError(cand, err) })
	if err != nil {
		w.logger.Printf("midi: connect %q: %v", cand, err)
		w.setPresent(state.No)
		return
	}
	w.stop = stop
	w.name = cand
	w.connected = true
	w.logger.Printf("midi: connected %q", cand)
	w.setPresent(state.Yes)
}

// Run calls Tick every interval until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRescanInterval
	}
	w.Tick()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case <-t.C:
			w.Tick()
		}
	}
}

// Close disconnects and shuts down the source.
func (w *Watcher) Close() error {
	if w.src == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.connected {
		w.disconnectLocked()
	}
	return w.src.Close()
}

func (w *Watcher) handle(data []byte) {
	w.normMu.Lock()
	ev, ok := w.norm.Normalize(data)
	w.normMu.Unlock()
	if ok && w.onEvent != nil {
		w.onEvent(ev)
	}
}

func (w *Watcher) listenError(name string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	w.logger.Printf("midi: listener %q: %v", name, err)
	// The error callback runs on the listener goroutine, which stop waits on.
	go func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.connected && w.name == name {
			w.disconnectLocked()
		}
	}()
}

// disconnectLocked closes the port and releases every note it left held.
func (w *Watcher) disconnectLocked() {
	if w.stop != nil {
		w.stop()
		w.stop = nil
	}
	w.connected = false
	w.name = ""

	w.normMu.Lock()
	held := w.norm.Held()
	w.norm.Reset()
	w.normMu.Unlock()
	if w.onEvent != nil {
		for _, id := range held {
			w.onEvent(input.NoteOff(id))
		}
	}
	w.setPresent(state.No)
}

func (w *Watcher) filter(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if !matchesAny(n, w.exclude) {
			out = append(out, n)
		}
	}
	return out
}

func (w *Watcher) pick(names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	if w.prefer != "" {
		p := strings.ToLower(w.prefer)
		for _, n := range names {
			if strings.HasPrefix(strings.ToLower(n), p) {
				return n, true
			}
		}
	}
	return names[0], true
}

func matchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
