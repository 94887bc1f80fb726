// Package completion fans payout session updates out to waiting ATM clients.
package completion

import (
	"sync"
	"time"
)

type EventKind string

const (
	EventPing      EventKind = "ping"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is a single notification for a payout session.
type Event struct {
	Kind       EventKind `json:"kind"`
	SessionKey string    `json:"sessionKey"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

// IsTerminal reports whether no further events follow this one.
func (e Event) IsTerminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventFailed
}

type subscriber struct {
	ch chan Event
}

// Hub routes session events to subscribers by session key. A terminal
// event closes every subscription for that key.
type Hub struct {
	mu   sync.Mutex
	subs map[string][]*subscriber
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string][]*subscriber),
	}
}

// Subscribe registers interest in a session key. The returned cancel
// function is safe to call more than once and after the channel closes.
func (h *Hub) Subscribe(sessionKey string) (<-chan Event, func()) {
	sub := &subscriber{
		// Buffered so slow readers do not block terminal publishes
		ch: make(chan Event, 8),
	}

	h.mu.Lock()
	h.subs[sessionKey] = append(h.subs[sessionKey], sub)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.removeLocked(sessionKey, sub)
		})
	}

	return sub.ch, cancel
}

// Publish delivers the event to every subscriber of its session key.
// Pings are dropped for subscribers whose buffer is full. A terminal
// event closes and removes all subscriptions for the key, so no event
// follows a terminal one.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[event.SessionKey]
	for _, sub := range subs {
		select {
		case sub.ch <- event:
		default:
		}
	}

	if event.IsTerminal() {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(h.subs, event.SessionKey)
	}
}

// SubscriberCount returns the number of active subscriptions for a key.
func (h *Hub) SubscriberCount(sessionKey string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs[sessionKey])
}

func (h *Hub) removeLocked(sessionKey string, sub *subscriber) {
	subs := h.subs[sessionKey]
	for i, s := range subs {
		if s == sub {
			h.subs[sessionKey] = append(subs[:i], subs[i+1:]...)
			close(sub.ch)

			break
		}
	}
	if len(h.subs[sessionKey]) == 0 {
		delete(h.subs, sessionKey)
	}
}
