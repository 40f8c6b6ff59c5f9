// Package eventbus fans engine events out to in-process subscribers such as
// the notification stream.
package eventbus

import (
	"context"
	"sync"
	"time"
)

// Event types published by the engine.
const (
	TypeNotification = "notification"
	TypePoints       = "points"
	TypeBadge        = "badge"
)

type Event struct {
	Type        string         `json:"type"`
	RecipientID string         `json:"recipient_id,omitempty"`
	Timestamp   int64          `json:"timestamp"`
	Data        map[string]any `json:"data,omitempty"`
}

type subscriber struct {
	recipientID string
	ch          chan Event
}

type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Publish delivers evt to every matching subscriber without blocking.
// A nil hub is a no-op so services can run without one.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if sub.recipientID != "" && evt.RecipientID != "" && sub.recipientID != evt.RecipientID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// slow consumer: drop rather than stall the writer
		}
	}
}

// Subscribe returns a channel of events addressed to recipientID (or all
// events when recipientID is empty). The channel closes when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, recipientID string, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{recipientID: recipientID, ch: make(chan Event, buffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
