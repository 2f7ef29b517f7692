// Package broadcast fans attributed filesystem events out to subscribers.
package broadcast

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/history"
)

// Subscriber receives attributed events matching its filters.
type Subscriber struct {
	ID   string
	Root string

	// MinDelta filters out events whose absolute size delta is smaller.
	// Zero delivers everything.
	MinDelta int64

	Events chan history.Record
}

// Broadcaster distributes attributed events to subscribers. Delivery is
// non-blocking: a subscriber whose channel is full misses the event.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	closed      bool
}

// New creates a Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe registers a subscriber for events under root. Returns nil after
// Close.
func (b *Broadcaster) Subscribe(root string, minDelta int64) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	sub := &Subscriber{
		ID:       uuid.New().String(),
		Root:     root,
		MinDelta: minDelta,
		Events:   make(chan history.Record, 100),
	}

	b.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		close(sub.Events)
		delete(b.subscribers, id)
	}
}

// Notify sends an event to all matching subscribers.
func (b *Broadcaster) Notify(rec history.Record) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subscribers {
		if !matches(sub, rec) {
			continue
		}
		select {
		case sub.Events <- rec:
		default:
			// Channel full, event dropped
		}
	}
}

// matches checks an event against a subscriber's filters.
func matches(sub *Subscriber, rec history.Record) bool {
	if sub.Root != "" {
		if !strings.HasPrefix(rec.Path, sub.Root) {
			return false
		}
		// Ensure it's actually under the root (not just a prefix match)
		if len(rec.Path) > len(sub.Root) && rec.Path[len(sub.Root)] != filepath.Separator {
			return false
		}
	}

	delta := rec.SizeDelta
	if delta < 0 {
		delta = -delta
	}
	return delta >= sub.MinDelta
}

// Close closes the broadcaster and all subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	for _, sub := range b.subscribers {
		close(sub.Events)
	}
	b.subscribers = make(map[string]*Subscriber)
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
