package broker

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recordingSink collects delivered lifecycle events.
type recordingSink struct {
	mu     sync.Mutex
	events []LifecycleEvent
}

func (s *recordingSink) OnLifecycleEvent(ev LifecycleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) kinds() []EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := make([]EventKind, len(s.events))
	for i, ev := range s.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestBridgeDeliversLifecycleEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newTestBroker(t, Options{})
	go b.Run(ctx)

	sink := &recordingSink{}
	b.SetEventSink(sink)

	c := b.Admit()
	b.Dispatch(ctx, c, []byte(`{"type":"noop"}`))
	b.Remove(c.ID)

	waitFor(t, func() bool { return len(sink.kinds()) >= 3 })

	kinds := sink.kinds()
	if kinds[0] != EventConnection || kinds[1] != EventMessage || kinds[2] != EventDisconnection {
		t.Fatalf("unexpected event order: %v", kinds)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, ev := range sink.events {
		if ev.ClientID != c.ID {
			t.Fatalf("unexpected client id: %s", ev.ClientID)
		}
		if ev.Timestamp.IsZero() {
			t.Fatalf("event missing timestamp")
		}
	}
}

func TestBridgeWithoutSinkNeverBlocks(t *testing.T) {
	// No Run loop and no sink: emissions must still return immediately.
	bridge := NewEventBridge(2, nopLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bridge.Emit(LifecycleEvent{Kind: EventMessage, ClientID: "c1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("emit blocked without a sink")
	}

	if bridge.Dropped() == 0 {
		t.Fatalf("expected overflow events counted as dropped")
	}
}
