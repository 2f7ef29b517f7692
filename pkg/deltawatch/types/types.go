// Package types provides core data types for the deltawatch change tracker.
// It defines the normalized filesystem event consumed by the aggregation
// engine, along with utility functions for formatting byte sizes and deltas.
package types

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// EventKind identifies the kind of filesystem change an event describes.
type EventKind int

// Event kinds emitted by the notification adapter.
//
// A rename is always delivered as two independent events: MovedFrom on the
// source path and MovedTo on the destination path, so that cross-directory
// moves debit one directory and credit another.
const (
	Created EventKind = iota
	Modified
	Deleted
	MovedFrom
	MovedTo
)

// kindNames maps event kinds to their display names.
var kindNames = map[EventKind]string{
	Created:   "created",
	Modified:  "modified",
	Deleted:   "deleted",
	MovedFrom: "moved_from",
	MovedTo:   "moved_to",
}

// String returns the display name of the kind, or "unknown" for
// out-of-contract values.
func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether k is one of the five defined event kinds.
func (k EventKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Event is a normalized filesystem change notification, decoupled from any
// OS-specific watching API. Events are constructed by the watch adapter,
// consumed once by the engine, and retained only as copies inside history.
type Event struct {
	// Kind is the kind of change observed.
	Kind EventKind

	// Path is the absolute path the change occurred on.
	Path string

	// Time is when the adapter observed the change.
	Time time.Time
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units for consistency with common filesystem tools.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatDelta formats a signed byte delta with an explicit sign, e.g.
// "+1.5 MiB" or "-300 B". Zero formats as "0 B".
func FormatDelta(delta int64) string {
	switch {
	case delta > 0:
		return "+" + humanize.IBytes(uint64(delta))
	case delta < 0:
		return "-" + humanize.IBytes(uint64(-delta))
	default:
		return "0 B"
	}
}

// FormatAgo formats the time elapsed since t as a compact string ("12s",
// "3m", "2h") for table display.
func FormatAgo(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
