// Package output provides formatters for displaying deltawatch results
// in various output formats (plain, tsv, json, jsonl).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("plain")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/engine"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/history"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
)

// DirInfo describes one directory's aggregates for output formatting.
type DirInfo struct {
	// Dir is the directory path.
	Dir string `json:"dir"`

	// Events is the number of events attributed to the directory.
	Events uint64 `json:"events"`

	// LastChange is when the most recent event was observed.
	LastChange time.Time `json:"last_change"`

	// CurrentSize is the last probed non-recursive size in bytes.
	CurrentSize int64 `json:"current_size"`

	// SizeDelta is the cumulative signed byte delta.
	SizeDelta int64 `json:"size_delta"`

	// SizeHuman is the human-readable current size (e.g., "1.5 MiB").
	SizeHuman string `json:"size_human"`

	// DeltaHuman is the human-readable signed delta (e.g., "+300 KiB").
	DeltaHuman string `json:"delta_human"`
}

// EventInfo describes one recorded event for output formatting.
type EventInfo struct {
	Time       time.Time `json:"time"`
	Kind       string    `json:"kind"`
	Path       string    `json:"path"`
	SizeDelta  int64     `json:"size_delta"`
	DeltaHuman string    `json:"delta_human"`
}

// Stats carries the engine's running totals for output formatting.
type Stats struct {
	TotalEvents    uint64            `json:"total_events"`
	ExcludedEvents uint64            `json:"excluded_events"`
	CountByKind    map[string]uint64 `json:"count_by_kind"`
	Directories    int               `json:"directories"`
	TrackedFiles   int               `json:"tracked_files"`
	Runtime        time.Duration     `json:"runtime"`
}

// Result contains the complete output data for formatting.
type Result struct {
	// Source is the watched root path.
	Source string `json:"source"`

	// Window is the recency window applied to Dirs; zero means all.
	Window time.Duration `json:"window"`

	// Dirs contains the changed directories, sorted by absolute delta.
	Dirs []DirInfo `json:"dirs"`

	// Events contains recent events, oldest first. Empty unless requested.
	Events []EventInfo `json:"events,omitempty"`

	// Stats contains the engine totals.
	Stats Stats `json:"stats"`
}

// Build assembles a Result from engine snapshots.
func Build(source string, window time.Duration, dirs []engine.DirSnapshot, events []history.Record, totals engine.Totals) *Result {
	out := &Result{
		Source: source,
		Window: window,
		Dirs:   make([]DirInfo, len(dirs)),
		Stats: Stats{
			TotalEvents:    totals.TotalEvents,
			ExcludedEvents: totals.ExcludedEvents,
			CountByKind:    make(map[string]uint64, len(totals.CountByKind)),
			Directories:    totals.Directories,
			TrackedFiles:   totals.TrackedFiles,
			Runtime:        time.Since(totals.StartedAt),
		},
	}
	for kind, n := range totals.CountByKind {
		out.Stats.CountByKind[kind.String()] = n
	}
	for i, d := range dirs {
		out.Dirs[i] = DirInfo{
			Dir:         d.Dir,
			Events:      d.EventCount,
			LastChange:  d.LastChange,
			CurrentSize: d.CurrentSize,
			SizeDelta:   d.SizeDelta,
			SizeHuman:   types.FormatSize(d.CurrentSize),
			DeltaHuman:  types.FormatDelta(d.SizeDelta),
		}
	}
	if len(events) > 0 {
		out.Events = make([]EventInfo, len(events))
		for i, ev := range events {
			out.Events[i] = EventInfo{
				Time:       ev.Time,
				Kind:       ev.Kind.String(),
				Path:       ev.Path,
				SizeDelta:  ev.SizeDelta,
				DeltaHuman: types.FormatDelta(ev.SizeDelta),
			}
		}
	}
	return out
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
