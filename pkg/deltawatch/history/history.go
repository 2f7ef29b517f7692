// Package history provides a fixed-capacity ring buffer of recorded
// filesystem events. Eviction is strict FIFO: when the buffer is full, the
// oldest record is dropped to make room for the newest.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
)

// ErrBadCapacity is returned when a buffer is created with a non-positive
// capacity.
var ErrBadCapacity = errors.New("history capacity must be positive")

// Record is a single recorded event together with the size delta the engine
// attributed to it.
type Record struct {
	// Time is when the event was observed.
	Time time.Time

	// Kind is the event kind.
	Kind types.EventKind

	// Path is the path the event occurred on.
	Path string

	// SizeDelta is the signed byte delta attributed to this event.
	SizeDelta int64
}

// Buffer holds recent records in a fixed-capacity ring.
type Buffer struct {
	mu      sync.RWMutex
	records []Record
	start   int // Index of oldest record
	count   int // Number of records in buffer
}

// New creates a buffer that retains at most capacity records.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, ErrBadCapacity
	}
	return &Buffer{records: make([]Record, capacity)}, nil
}

// Append adds a record, evicting the oldest when the buffer is full.
func (b *Buffer) Append(r Record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := (b.start + b.count) % len(b.records)
	b.records[idx] = r

	if b.count < len(b.records) {
		b.count++
	} else {
		b.start = (b.start + 1) % len(b.records)
	}
}

// Recent returns the last n records in arrival order, oldest of the
// requested window first. n is clamped to the current buffer size.
// The returned slice is a copy and safe to retain.
func (b *Buffer) Recent(n int) []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return nil
	}

	out := make([]Record, n)
	offset := b.count - n
	for i := range n {
		out[i] = b.records[(b.start+offset+i)%len(b.records)]
	}
	return out
}

// Len returns the number of records currently held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the configured capacity.
func (b *Buffer) Cap() int {
	return len(b.records)
}
