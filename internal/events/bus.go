package events

import "sync"

// EventType enumerates event categories published on slot and meeting
// mutations.
type EventType string

const (
	EventSlotDeclared         EventType = "slot.declared"
	EventSlotCancelled        EventType = "slot.cancelled"
	EventMeetingCreated       EventType = "meeting.created"
	EventMeetingStatusChanged EventType = "meeting.status_changed"
)

// AllTypes lists every event type, for subscribers that want the full feed.
func AllTypes() []EventType {
	return []EventType{
		EventSlotDeclared,
		EventSlotCancelled,
		EventMeetingCreated,
		EventMeetingStatusChanged,
	}
}

// Payload is a generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Bus is a simple in-process pubsub. Publish never blocks; slow subscribers
// drop events, which is acceptable because consumers re-read authoritative
// state rather than replaying the feed.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for an event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to all subscribers of the event type. The sends stay
// under the read lock: Unsubscribe closes channels under the write lock, so
// a send can never hit a closed channel.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[eventType] {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, s := range subs {
		if s == sub {
			b.subs[eventType] = append(subs[:i], subs[i+1:]...)
			close(s)
			return
		}
	}
}
