package engine

import (
	"cmp"
	"slices"
	"time"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/history"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
)

// DirSnapshot is an immutable view of one directory's aggregates.
type DirSnapshot struct {
	// Dir is the directory path.
	Dir string

	// EventCount is the number of non-excluded events attributed to Dir.
	EventCount uint64

	// LastChange is when the most recent event was observed.
	LastChange time.Time

	// CurrentSize is the last successfully probed non-recursive size.
	CurrentSize int64

	// InitialSize is the probed size at first observation.
	InitialSize int64

	// SizeDelta is the cumulative signed byte delta attributed to Dir
	// since the engine started. It may legitimately diverge from
	// CurrentSize-InitialSize when activity happens between probes.
	SizeDelta int64
}

// Totals is an immutable view of the engine's process-wide counters.
type Totals struct {
	TotalEvents    uint64
	ExcludedEvents uint64
	CountByKind    map[types.EventKind]uint64
	StartedAt      time.Time
	Directories    int
	TrackedFiles   int
}

// ChangedDirs returns every directory whose last change falls within the
// given window (window <= 0 means all directories), sorted descending by
// absolute cumulative size delta so large shrinks rank alongside large
// growths. Ties are broken by first-seen order, which keeps the ordering
// deterministic under equal deltas.
func (e *Engine) ChangedDirs(window time.Duration) []DirSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var cutoff time.Time
	if window > 0 {
		cutoff = time.Now().Add(-window)
	}

	type entry struct {
		snap DirSnapshot
		seq  int
	}
	entries := make([]entry, 0, len(e.dirs))
	for dir, ds := range e.dirs {
		if window > 0 && ds.lastChange.Before(cutoff) {
			continue
		}
		entries = append(entries, entry{
			snap: DirSnapshot{
				Dir:         dir,
				EventCount:  ds.eventCount,
				LastChange:  ds.lastChange,
				CurrentSize: ds.currentSize,
				InitialSize: ds.initialSize,
				SizeDelta:   ds.sizeDelta,
			},
			seq: ds.seq,
		})
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(abs(b.snap.SizeDelta), abs(a.snap.SizeDelta)); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]DirSnapshot, len(entries))
	for i, en := range entries {
		out[i] = en.snap
	}
	return out
}

// RecentEvents returns the last n recorded events in arrival order, clamped
// to the history's current size.
func (e *Engine) RecentEvents(n int) []history.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Recent(n)
}

// Totals returns a value snapshot of the running totals.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()

	byKind := make(map[types.EventKind]uint64, len(e.countByKind))
	for k, v := range e.countByKind {
		byKind[k] = v
	}
	return Totals{
		TotalEvents:    e.totalEvents,
		ExcludedEvents: e.excludedEvents,
		CountByKind:    byKind,
		StartedAt:      e.startedAt,
		Directories:    len(e.dirs),
		TrackedFiles:   len(e.ledger),
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
