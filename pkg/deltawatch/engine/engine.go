// Package engine implements the change-aggregation core of deltawatch.
//
// The engine consumes normalized filesystem events and maintains, per
// directory, cumulative byte-size deltas, event counts and recency, plus a
// bounded rolling log of recent raw events. Size deltas are derived from a
// per-file ledger of last-known sizes rather than from repeated probes of
// the parent directory, so concurrent unrelated changes to sibling files
// cannot corrupt the attribution.
//
// A single Engine instance owns all of its state behind one mutex: Record is
// the sole mutating entry point, and every query returns value snapshots,
// never live references. Multiple watched roots run independent instances.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/exclude"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/history"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/probe"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
)

// ErrUnknownKind is returned by Record for an event kind outside the five
// defined by the adapter contract. Such an event is a programming error in
// the adapter, not a runtime condition to recover from.
var ErrUnknownKind = errors.New("unknown event kind")

// DefaultHistoryCapacity is the default number of events retained in history.
const DefaultHistoryCapacity = 1000

// Config configures a new Engine.
type Config struct {
	// HistoryCapacity is the maximum number of events retained in the
	// rolling history. Zero uses DefaultHistoryCapacity; negative values
	// are rejected.
	HistoryCapacity int

	// Exclude contains glob patterns; matching paths are invisible to the
	// aggregates and history, counted only in ExcludedEvents.
	Exclude []string

	// Probe computes a directory's non-recursive size. Nil uses probe.Dir.
	Probe func(dir string) int64
}

// dirStats holds the mutable per-directory aggregates. The seq field records
// first-seen order and breaks sorting ties deterministically.
type dirStats struct {
	seq         int
	eventCount  uint64
	lastChange  time.Time
	currentSize int64
	initialSize int64
	probed      bool
	sizeDelta   int64
}

// Engine aggregates filesystem change events by directory.
type Engine struct {
	mu sync.Mutex

	excl    *exclude.Set
	probeFn func(string) int64
	hist    *history.Buffer

	// ledger maps file paths to their last observed size. Absence means
	// "size unknown", not zero.
	ledger map[string]int64

	// dirs accumulates per-directory statistics; entries are never removed
	// for the lifetime of the engine.
	dirs map[string]*dirStats

	// knownDirs remembers paths the engine has classified as directories,
	// so a Deleted/MovedFrom on a vanished path can still be classified.
	knownDirs map[string]bool

	totalEvents    uint64
	excludedEvents uint64
	countByKind    map[types.EventKind]uint64
	startedAt      time.Time
}

// New creates an Engine. The only construction-time validation is the
// history capacity; everything else has usable defaults.
func New(cfg Config) (*Engine, error) {
	capacity := cfg.HistoryCapacity
	if capacity == 0 {
		capacity = DefaultHistoryCapacity
	}

	hist, err := history.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("creating history: %w", err)
	}

	probeFn := cfg.Probe
	if probeFn == nil {
		probeFn = probe.Dir
	}

	return &Engine{
		excl:        exclude.New(cfg.Exclude),
		probeFn:     probeFn,
		hist:        hist,
		ledger:      make(map[string]int64),
		dirs:        make(map[string]*dirStats),
		knownDirs:   make(map[string]bool),
		countByKind: make(map[types.EventKind]uint64),
		startedAt:   time.Now(),
	}, nil
}

// Record applies a single normalized event to the engine state. All
// mutations (exclusion counter, ledger, aggregates, probe results, history)
// happen as one atomic unit relative to concurrent Record calls and queries.
//
// Filesystem races are tolerated throughout: a path that vanishes between
// notification and stat contributes a zero size, and probe failures leave
// the previously recorded directory sizes untouched.
func (e *Engine) Record(ev types.Event) error {
	if !ev.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(ev.Kind))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Exclusion must be decided before any other state is touched.
	if e.excl.Match(ev.Path) {
		e.excludedEvents++
		return nil
	}

	// Best-effort classification. When the path is already gone, fall back
	// to what we learned about it earlier; never-seen vanished paths are
	// treated as files.
	var isDir, fileExists bool
	var fileSize int64
	if info, err := os.Lstat(ev.Path); err == nil {
		isDir = info.IsDir()
		if !isDir {
			fileExists = true
			fileSize = info.Size()
		}
	} else {
		isDir = e.knownDirs[ev.Path]
	}

	directory := ev.Path
	if isDir {
		e.knownDirs[ev.Path] = true
	} else {
		directory = filepath.Dir(ev.Path)
	}

	delta := e.applyLedger(ev, isDir, fileExists, fileSize)
	if isDir && (ev.Kind == types.Deleted || ev.Kind == types.MovedFrom) {
		delete(e.knownDirs, ev.Path)
	}

	e.totalEvents++
	e.countByKind[ev.Kind]++

	ds := e.dirs[directory]
	if ds == nil {
		ds = &dirStats{seq: len(e.dirs)}
		e.dirs[directory] = ds
	}
	ds.eventCount++
	ds.lastChange = ev.Time
	ds.sizeDelta += delta

	// Re-probe the directory. A failed stat (directory vanished, permission
	// denied) leaves the recorded sizes unchanged.
	if info, err := os.Stat(directory); err == nil && info.IsDir() {
		e.knownDirs[directory] = true
		size := e.probeFn(directory)
		if !ds.probed {
			ds.initialSize = size
			ds.probed = true
		}
		ds.currentSize = size
	}

	e.hist.Append(history.Record{
		Time:      ev.Time,
		Kind:      ev.Kind,
		Path:      ev.Path,
		SizeDelta: delta,
	})
	return nil
}

// applyLedger computes the event's size delta and updates the file size
// ledger. Directory events never touch the ledger and carry a zero delta;
// the directory's own size is obtained only via the probe.
//
// Must be called with e.mu held.
func (e *Engine) applyLedger(ev types.Event, isDir, fileExists bool, fileSize int64) int64 {
	if isDir {
		return 0
	}

	switch ev.Kind {
	case types.Created, types.MovedTo:
		if fileExists {
			e.ledger[ev.Path] = fileSize
			return fileSize
		}
		return 0

	case types.Modified:
		if !fileExists {
			return 0
		}
		old, known := e.ledger[ev.Path]
		e.ledger[ev.Path] = fileSize
		if !known {
			// No prior baseline: record the size, attribute nothing.
			return 0
		}
		return fileSize - old

	case types.Deleted, types.MovedFrom:
		old := e.ledger[ev.Path] // zero when unknown, the one defaulting contract point
		delete(e.ledger, ev.Path)
		return -old
	}
	return 0
}

// Prime seeds the ledger with a known file size without recording an event.
// The baseline scan uses this so the first modification of a pre-existing
// file yields a true delta instead of a zero-delta baseline.
func (e *Engine) Prime(path string, size int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger[path] = size
}

// LedgerSize returns the number of files currently tracked in the ledger.
func (e *Engine) LedgerSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.ledger)
}
