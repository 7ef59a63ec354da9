package events

import (
	"sync"
	"time"

	"github.com/corectl/corectl/pkg/logging"
)

// Subscriber receives events on a buffered channel. A slow subscriber that
// fills its buffer has its oldest-pending event dropped rather than
// blocking the emitting call — Emit must never block the resolver or
// lifecycle manager.
type Subscriber struct {
	id string
	ch chan Event
}

// Events returns the channel a Subscriber can range over.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Bus is an in-process pub/sub for Event values. It implements the narrow
// registry.EventEmitter and lifecycle event-sink interfaces via Emit.
type Bus struct {
	mu              sync.RWMutex
	subscribers     map[string]*Subscriber
	suppressConsole bool
	nextID          int
}

// NewBus constructs an empty event bus. suppressConsole mirrors the
// SUPPRESS_EVENTS environment variable (spec.md §6): events are still
// emitted and delivered to subscribers, only the console echo is withheld.
func NewBus(suppressConsole bool) *Bus {
	return &Bus{subscribers: make(map[string]*Subscriber), suppressConsole: suppressConsole}
}

// Emit builds an Event from eventType and fields and delivers it to every
// subscriber and, unless suppressed, to the structured console log. Fields
// are scrubbed of secret-shaped keys before either sink sees them — this is
// the default-on redaction required by spec.md §9.
func (b *Bus) Emit(eventType string, fields map[string]interface{}) {
	scrubbed := logging.ScrubFields(fields)

	ev := Event{
		Type:      Type(eventType),
		Fields:    scrubbed,
		Timestamp: time.Now(),
	}
	if v, ok := scrubbed["domain"].(string); ok {
		ev.Domain = v
	}
	if v, ok := scrubbed["key"].(string); ok {
		ev.Key = v
	}
	if v, ok := scrubbed["provider"].(string); ok {
		ev.Provider = v
	}
	if v, ok := scrubbed["source"].(string); ok {
		ev.Source = v
	}

	b.mu.RLock()
	for _, sub := range b.subscribers {
		select {
		case sub.ch <- ev:
		default:
			// Drop for a full subscriber buffer rather than block emission.
			select {
			case <-sub.ch:
				sub.ch <- ev
			default:
			}
		}
	}
	b.mu.RUnlock()

	if !b.suppressConsole {
		logging.Info("events", "%s domain=%s key=%s provider=%s", ev.Type, ev.Domain, ev.Key, ev.Provider)
	}
}

// Subscribe registers a new Subscriber with the given buffer depth.
func (b *Bus) Subscribe(bufferDepth int) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscriber{id: idFor(b.nextID), ch: make(chan Event, bufferDepth)}
	b.subscribers[sub.id] = sub
	return sub
}

// Unsubscribe removes a Subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub.id]; ok {
		delete(b.subscribers, sub.id)
		close(sub.ch)
	}
}

func idFor(n int) string {
	const hex = "0123456789abcdef"
	if n == 0 {
		return "0"
	}
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append([]byte{hex[n%16]}, buf...)
		n /= 16
	}
	return string(buf)
}
