package broker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventKind names a lifecycle event republished to external subscribers.
type EventKind string

const (
	EventConnection    EventKind = "connection"
	EventMessage       EventKind = "message"
	EventDisconnection EventKind = "disconnection"
)

// LifecycleEvent describes a connection, message or disconnection.
// Message holds the raw inbound frame for message events.
type LifecycleEvent struct {
	Kind      EventKind
	ClientID  string
	Message   json.RawMessage
	Timestamp time.Time
}

// EventSink receives lifecycle events. Implementations that block only
// delay other events, never frame processing.
type EventSink interface {
	OnLifecycleEvent(ev LifecycleEvent)
}

// EventBridge decouples event publication from the dispatch path:
// Emit queues onto a bounded channel and a single goroutine delivers
// to the sink. When the queue is full the event is dropped and counted.
type EventBridge struct {
	mu      sync.RWMutex
	sink    EventSink
	dropped uint64

	events chan LifecycleEvent
	log    *zerolog.Logger
}

// NewEventBridge builds a bridge with the given queue size.
func NewEventBridge(buffer int, logger *zerolog.Logger) *EventBridge {
	if buffer <= 0 {
		buffer = 64
	}
	return &EventBridge{
		events: make(chan LifecycleEvent, buffer),
		log:    logger,
	}
}

// SetSink installs the subscriber. A nil sink drops all events.
func (b *EventBridge) SetSink(sink EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = sink
}

// Emit queues an event without blocking. The timestamp is stamped here
// so queueing delay does not skew it.
func (b *EventBridge) Emit(ev LifecycleEvent) {
	ev.Timestamp = time.Now()

	select {
	case b.events <- ev:
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.log.Debug().Str("kind", string(ev.Kind)).Msg("lifecycle event dropped")
	}
}

// Dropped returns the number of events discarded due to a full queue.
func (b *EventBridge) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Run delivers queued events until the context is cancelled.
func (b *EventBridge) Run(ctx context.Context) {
	for {
		select {
		case ev := <-b.events:
			b.mu.RLock()
			sink := b.sink
			b.mu.RUnlock()
			if sink != nil {
				sink.OnLifecycleEvent(ev)
			}
		case <-ctx.Done():
			return
		}
	}
}
