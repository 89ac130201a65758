package state

import (
	"context"
	"testing"
	"time"

	"github.com/cwbudde/piano-sampler/note"
)

func TestUpdateNotifiesOncePerSubscriber(t *testing.T) {
	h := NewHub()
	calls := 0
	var got State
	h.Subscribe([]Field{MIDISupported, MIDIInputPresent}, func(s State) {
		calls++
		got = s
	})

	supported, present := Yes, No
	h.Update(Patch{MIDISupported: &supported, MIDIInputPresent: &present})
	h.Drain()

	if calls != 1 {
		t.Fatalf("expected exactly one callback, got %d", calls)
	}
	if got.MIDISupported != Yes || got.MIDIInputPresent != No {
		t.Fatalf("snapshot mismatch: %+v", got)
	}
}

func TestDeliveryIsDeferred(t *testing.T) {
	h := NewHub()
	delivered := false
	h.Subscribe([]Field{ActiveNotes}, func(State) { delivered = true })

	h.Update(Patch{Active: map[note.ID]bool{note.MustParse("C4"): true}})
	if delivered {
		t.Fatalf("callback ran synchronously inside Update")
	}
	if n := h.Drain(); n != 1 || !delivered {
		t.Fatalf("expected one deferred delivery, ran=%d delivered=%v", n, delivered)
	}
}

func TestSnapshotContainsOnlyWatchedFields(t *testing.T) {
	h := NewHub()
	var got State
	h.Subscribe([]Field{MIDISupported}, func(s State) { got = s })

	h.Update(Patch{Active: map[note.ID]bool{note.MustParse("C4"): true}})
	h.Update(SetMIDISupported(Yes))
	h.Drain()

	if got.MIDISupported != Yes {
		t.Fatalf("watched field missing: %+v", got)
	}
	if got.ActiveNotes != nil {
		t.Fatalf("unwatched field leaked into snapshot: %+v", got.ActiveNotes)
	}
}

func TestUnrelatedUpdatesDoNotNotify(t *testing.T) {
	h := NewHub()
	calls := 0
	h.Subscribe([]Field{MIDIInputPresent}, func(State) { calls++ })
	h.Update(Patch{Pressed: map[note.ID]bool{note.MustParse("A0"): true}})
	h.Update(Patch{})
	h.Drain()
	if calls != 0 {
		t.Fatalf("expected no callbacks, got %d", calls)
	}
}

func TestNoteSetsMergeMembership(t *testing.T) {
	h := NewHub()
	c4, e4 := note.MustParse("C4"), note.MustParse("E4")
	h.Update(Patch{Active: map[note.ID]bool{c4: true, e4: true}})
	h.Update(Patch{Active: map[note.ID]bool{c4: false}})
	s := h.Snapshot()
	if s.ActiveNotes[c4] || !s.ActiveNotes[e4] {
		t.Fatalf("unexpected active set: %v", s.ActiveNotes.Sorted())
	}
}

func TestSnapshotsAreIsolatedPerUpdate(t *testing.T) {
	h := NewHub()
	var seen [][]note.ID
	h.Subscribe([]Field{ActiveNotes}, func(s State) { seen = append(seen, s.ActiveNotes.Sorted()) })
	c4 := note.MustParse("C4")
	h.Update(Patch{Active: map[note.ID]bool{c4: true}})
	h.Update(Patch{Active: map[note.ID]bool{c4: false}})
	h.Drain()
	if len(seen) != 2 || len(seen[0]) != 1 || len(seen[1]) != 0 {
		t.Fatalf("expected [C4] then [], got %v", seen)
	}
}

func TestUnsubscribe(t *testing.T) {
	h := NewHub()
	calls := 0
	id := h.Subscribe([]Field{MIDISupported}, func(State) { calls++ })
	h.Unsubscribe(id)
	h.Update(SetMIDISupported(No))
	h.Drain()
	if calls != 0 {
		t.Fatalf("expected no calls after Unsubscribe, got %d", calls)
	}
}

func TestRunDeliversInBackground(t *testing.T) {
	h := NewHub()
	done := make(chan State, 1)
	h.Subscribe([]Field{MIDIInputPresent}, func(s State) { done <- s })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	h.Update(SetMIDIInputPresent(Yes))
	select {
	case s := <-done:
		if s.MIDIInputPresent != Yes {
			t.Fatalf("unexpected state %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("notification not delivered")
	}
}

func TestMIDIStatus(t *testing.T) {
	cases := []struct {
		s    State
		want string
	}{
		{State{}, "Initializing"},
		{State{MIDISupported: No}, "Not Supported"},
		{State{MIDISupported: Yes, MIDIInputPresent: No}, "Device Disconnected"},
		{State{MIDISupported: Yes, MIDIInputPresent: Yes}, "Device Connected"},
	}
	for _, c := range cases {
		if got := MIDIStatus(c.s); got != c.want {
			t.Fatalf("MIDIStatus(%+v) = %q, want %q", c.s, got, c.want)
		}
	}
}
