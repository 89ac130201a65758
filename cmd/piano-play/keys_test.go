package main

import (
	"testing"
	"time"

	"github.com/cwbudde/piano-sampler/input"
	"github.com/cwbudde/piano-sampler/note"
)

func TestRuneCodesCoverDefaultKeyMap(t *testing.T) {
	km := input.DefaultKeyMap()
	seen := make(map[string]bool)
	for _, code := range runeCodes {
		if _, ok := km[code]; !ok {
			t.Fatalf("rune code %q is not in the key map", code)
		}
		seen[code] = true
	}
	// Enter arrives as a special key, not a rune.
	if len(seen) != len(km)-1 {
		t.Fatalf("expected %d rune codes, got %d", len(km)-1, len(seen))
	}
	if code, ok := codeForRune('A'); !ok || code != "KeyA" {
		t.Fatalf("uppercase letters should map like lowercase, got %q", code)
	}
}

func TestTermKeysReleaseAfterRepeatStops(t *testing.T) {
	var events []input.Event
	keys := newTermKeys(input.NewKeyboard(input.DefaultKeyMap(), note.Piano88), func(ev input.Event) {
		events = append(events, ev)
	})
	t0 := time.Unix(0, 0)

	keys.Press("KeyA", t0)
	keys.Press("KeyA", t0.Add(500*time.Millisecond))
	keys.Press("KeyA", t0.Add(530*time.Millisecond))
	keys.Expire(t0.Add(1000 * time.Millisecond))
	if len(events) != 1 || !events[0].On {
		t.Fatalf("repeats within the timeout must keep one note-on, got %+v", events)
	}

	keys.Expire(t0.Add(1200 * time.Millisecond))
	if len(events) != 2 || events[1].On || events[1].Note != note.MustParse("C4") {
		t.Fatalf("expected C4 released after repeat stopped, got %+v", events)
	}

	keys.Press("KeyA", t0.Add(1300*time.Millisecond))
	if len(events) != 3 || !events[2].On {
		t.Fatalf("a new press after release must retrigger")
	}
}

func TestTermKeysReleaseAll(t *testing.T) {
	var offs int
	keys := newTermKeys(input.NewKeyboard(input.DefaultKeyMap(), note.Piano88), func(ev input.Event) {
		if !ev.On {
			offs++
		}
	})
	now := time.Now()
	keys.Press("KeyA", now)
	keys.Press("KeyD", now)
	keys.Press("F13", now)
	keys.ReleaseAll()
	if offs != 2 {
		t.Fatalf("expected 2 releases, got %d", offs)
	}
	if len(keys.lastSeen) != 0 {
		t.Fatalf("nothing should remain held")
	}
}
