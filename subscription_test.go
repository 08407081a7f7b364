package emitz

import (
	"testing"
)

func TestSubscriptionUnsubscribe(t *testing.T) {
	events, _ := newTestEmitter(t)
	var log callLog

	sub, err := events.Subscribe("test.unsubscribe", log.listener("h"))
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if sub.Key() != "test.unsubscribe" {
		t.Errorf("Expected key test.unsubscribe, got %v", sub.Key())
	}

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Failed to unsubscribe: %v", err)
	}

	// Double unsubscribe should return error
	if err := sub.Unsubscribe(); err != ErrAlreadyUnsubscribed {
		t.Errorf("Expected ErrAlreadyUnsubscribed, got %v", err)
	}

	ok, err := events.Emit("test.unsubscribe")
	if err != nil {
		t.Fatalf("Failed to emit: %v", err)
	}
	if ok || len(log.Calls()) != 0 {
		t.Error("Listener should not be called after unsubscribe")
	}
}

func TestSubscriptionAfterRemoveAll(t *testing.T) {
	events, _ := newTestEmitter(t)

	sub1, err := events.Subscribe("test.clear", Func(func(...any) {}))
	if err != nil {
		t.Fatalf("Failed to subscribe sub1: %v", err)
	}
	sub2, err := events.Subscribe("test.clear", Func(func(...any) {}))
	if err != nil {
		t.Fatalf("Failed to subscribe sub2: %v", err)
	}

	if err := events.RemoveAllListeners("test.clear"); err != nil {
		t.Fatalf("Failed to remove listeners: %v", err)
	}

	if err := sub1.Unsubscribe(); err != ErrListenerNotFound {
		t.Errorf("Expected ErrListenerNotFound for sub1, got %v", err)
	}
	if err := sub2.Unsubscribe(); err != ErrListenerNotFound {
		t.Errorf("Expected ErrListenerNotFound for sub2, got %v", err)
	}
}

func TestSubscribeOnce(t *testing.T) {
	events, _ := newTestEmitter(t)
	var log callLog

	fired, err := events.SubscribeOnce("test.once", log.listener("fired"))
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	cancelled, err := events.SubscribeOnce("test.once", log.listener("cancelled"))
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := cancelled.Unsubscribe(); err != nil {
		t.Fatalf("Failed to cancel pending one-shot: %v", err)
	}

	if _, err := events.Emit("test.once"); err != nil {
		t.Fatalf("Failed to emit: %v", err)
	}
	if calls := log.Calls(); len(calls) != 1 || calls[0] != "fired" {
		t.Errorf("Expected only the remaining one-shot to fire, got %v", calls)
	}

	// Already fired, so the listener is gone
	if err := fired.Unsubscribe(); err != ErrListenerNotFound {
		t.Errorf("Expected ErrListenerNotFound, got %v", err)
	}
}

func TestSubscriptionTargetsItsOwnEntry(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		events, _ := newTestEmitter(t)
		f := Func(func(...any) {})

		// Plain subscription followed by a one-shot of the same listener
		sub, err := events.Subscribe("test.entry", f)
		if err != nil {
			t.Fatalf("Failed to subscribe: %v", err)
		}
		if err := events.Once("test.entry", f); err != nil {
			t.Fatalf("Failed to register: %v", err)
		}

		if err := sub.Unsubscribe(); err != nil {
			t.Fatalf("Failed to unsubscribe: %v", err)
		}

		raw := events.RawListeners("test.entry")
		if len(raw) != 1 {
			t.Fatalf("Expected 1 listener, got %d", len(raw))
		}
		once, ok := raw[0].(*OnceListener)
		if !ok {
			t.Fatalf("Expected the one-shot registration to survive, got %T", raw[0])
		}
		if once.Unwrap() != f {
			t.Error("One-shot should still wrap the original listener")
		}
	})

	t.Run("MatchFirst", func(t *testing.T) {
		events, _ := newTestEmitter(t, WithMatchPolicy(MatchFirst))
		f := Func(func(...any) {})

		if err := events.Once("test.entry", f); err != nil {
			t.Fatalf("Failed to register: %v", err)
		}
		sub, err := events.Subscribe("test.entry", f)
		if err != nil {
			t.Fatalf("Failed to subscribe: %v", err)
		}

		if err := sub.Unsubscribe(); err != nil {
			t.Fatalf("Failed to unsubscribe: %v", err)
		}

		raw := events.RawListeners("test.entry")
		if len(raw) != 1 {
			t.Fatalf("Expected 1 listener, got %d", len(raw))
		}
		if _, ok := raw[0].(*OnceListener); !ok {
			t.Errorf("Expected the one-shot registration to survive, got %T", raw[0])
		}
	})

	t.Run("Once", func(t *testing.T) {
		events, _ := newTestEmitter(t)
		f := Func(func(...any) {})

		// Same listener registered plainly and as a one-shot
		if err := events.On("test.entry", f); err != nil {
			t.Fatalf("Failed to register: %v", err)
		}
		sub, err := events.SubscribeOnce("test.entry", f)
		if err != nil {
			t.Fatalf("Failed to subscribe: %v", err)
		}
		if err := events.On("test.entry", Func(func(...any) {})); err != nil {
			t.Fatalf("Failed to register: %v", err)
		}

		if err := sub.Unsubscribe(); err != nil {
			t.Fatalf("Failed to unsubscribe: %v", err)
		}

		raw := events.RawListeners("test.entry")
		if len(raw) != 2 || raw[0] != f {
			t.Errorf("Expected plain registration to survive, got %v", raw)
		}
		for _, l := range raw {
			if _, ok := l.(*OnceListener); ok {
				t.Error("One-shot wrapper should have been removed")
			}
		}
	})
}

func TestSubscriptionAnnouncesRemoval(t *testing.T) {
	events, _ := newTestEmitter(t)
	f := Func(func(...any) {})

	var removed []any
	if err := events.On(RemoveListenerEvent, Func(func(args ...any) {
		removed = append(removed, args[1])
	})); err != nil {
		t.Fatalf("Failed to register watcher: %v", err)
	}

	sub, err := events.SubscribeOnce("test.announce", f)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Failed to unsubscribe: %v", err)
	}

	if len(removed) != 1 || removed[0] != f {
		t.Errorf("Expected removal of original listener to be announced, got %v", removed)
	}
}
