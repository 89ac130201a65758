package state

import (
	"context"
	"sync"
)

type subscription struct {
	id       int
	watched  [numFields]bool
	callback func(State)
}

// Hub owns the shared State and its subscribers. Notifications are never
// delivered inside Update: they are queued and run later by Run or Drain,
// in the order the updates happened.
type Hub struct {
	mu     sync.Mutex
	state  State
	subs   []*subscription
	serial int
	tasks  []func()
	wake   chan struct{}
}

// NewHub returns a hub holding the default state.
func NewHub() *Hub {
	return &Hub{
		state: State{ActiveNotes: NoteSet{}, PressedNotes: NoteSet{}},
		wake:  make(chan struct{}, 1),
	}
}

// Subscribe registers cb for changes to any of fields and returns the
// subscription id.
func (h *Hub) Subscribe(fields []Field, cb func(State)) int {
	s := &subscription{callback: cb}
	for _, f := range fields {
		if f >= 0 && f < numFields {
			s.watched[f] = true
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.serial++
	s.id = h.serial
	h.subs = append(h.subs, s)
	return s.id
}

// Unsubscribe removes a subscription. Already queued notifications for it
// are still delivered.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

// Update merges p into the state and queues one notification per
// subscriber watching any field present in p.
func (h *Hub) Update(p Patch) {
	changed := p.fields()
	if len(changed) == 0 {
		return
	}
	h.mu.Lock()
	merge(&h.state, p)
	for _, s := range h.subs {
		if !watchesAny(s, changed) {
			continue
		}
		snap := project(h.state, s.watched)
		cb := s.callback
		h.tasks = append(h.tasks, func() { cb(snap) })
	}
	queued := len(h.tasks) > 0
	h.mu.Unlock()
	if queued {
		select {
		case h.wake <- struct{}{}:
		default:
		}
	}
}

func watchesAny(s *subscription, fields []Field) bool {
	for _, f := range fields {
		if s.watched[f] {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the full state.
func (h *Hub) Snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	var all [numFields]bool
	for i := range all {
		all[i] = true
	}
	return project(h.state, all)
}

// Drain runs every queued notification on the calling goroutine and
// returns how many ran. Notifications queued by the callbacks themselves
// run in the same call.
func (h *Hub) Drain() int {
	n := 0
	for {
		h.mu.Lock()
		tasks := h.tasks
		h.tasks = nil
		h.mu.Unlock()
		if len(tasks) == 0 {
			return n
		}
		for _, t := range tasks {
			t()
		}
		n += len(tasks)
	}
}

// Run delivers notifications until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.wake:
			h.Drain()
		}
	}
}
