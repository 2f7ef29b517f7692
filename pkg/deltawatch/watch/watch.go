// Package watch adapts fsnotify notifications into normalized change events.
//
// fsnotify reports a rename as Rename on the old path followed by Create on
// the new path. The adapter pairs a Create arriving shortly after a Rename
// into a MovedTo, so the engine sees the move as a MovedFrom/MovedTo pair;
// a Create with no recent Rename stays a plain Created.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/logging"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
)

// renamePairWindow bounds how long after a Rename a Create is still treated
// as the destination half of a move.
const renamePairWindow = 500 * time.Millisecond

// Handler receives normalized events from the watcher's event loop.
type Handler func(types.Event)

// Watcher watches directories and emits normalized change events.
type Watcher struct {
	watcher   *fsnotify.Watcher
	paths     map[string]bool
	mu        sync.RWMutex
	closed    bool
	recursive bool

	// lastRename is when the most recent Rename notification arrived,
	// consulted by the Create half of the pairing heuristic.
	lastRename time.Time
}

// New creates a Watcher. With recursive set, Watch covers the whole subtree
// and directories created later are added to the watch automatically.
func New(recursive bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:   fsw,
		paths:     make(map[string]bool),
		recursive: recursive,
	}, nil
}

// Watch starts watching a directory. In recursive mode all subdirectories
// are watched too; symlinks are not followed to avoid loops.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return nil // Only watch directories
	}

	if !w.recursive {
		return w.addWatch(absRoot)
	}

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			return w.addWatch(path)
		}

		return nil
	})
}

// addWatch adds a single directory to the watch list.
func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	if w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		logging.Get("watch").Warn("failed to add watch", "path", path, "error", err)
		return err
	}

	w.paths[path] = true
	return nil
}

// Unwatch stops watching a path and all its subdirectories.
func (w *Watcher) Unwatch(root string) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	for path := range w.paths {
		if path == absRoot || isSubPath(path, absRoot) {
			_ = w.watcher.Remove(path)
			delete(w.paths, path)
		}
	}
}

// WatchedDirs returns the number of directories currently watched.
func (w *Watcher) WatchedDirs() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.paths)
}

// Run starts the event loop. It blocks until the context is cancelled or the
// watcher is closed, calling handler for each normalized event.
func (w *Watcher) Run(ctx context.Context, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			w.handleEvent(event, handler)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get("watch").Error("watcher error", "error", err)
		}
	}
}

// handleEvent maps one fsnotify notification to a normalized event.
func (w *Watcher) handleEvent(event fsnotify.Event, handler Handler) {
	now := time.Now()

	var kind types.EventKind
	switch {
	case event.Op&fsnotify.Create != 0:
		kind = w.handleCreate(event.Name, now)

	case event.Op&fsnotify.Write != 0:
		kind = types.Modified

	case event.Op&fsnotify.Remove != 0:
		kind = types.Deleted
		w.dropWatches(event.Name)

	case event.Op&fsnotify.Rename != 0:
		kind = types.MovedFrom
		w.mu.Lock()
		w.lastRename = now
		w.mu.Unlock()
		w.dropWatches(event.Name)

	default:
		return // Chmod and friends carry no size information
	}

	if handler != nil {
		handler(types.Event{Kind: kind, Path: event.Name, Time: now})
	}
}

// handleCreate classifies a Create notification and extends the watch when a
// new directory appears in recursive mode.
func (w *Watcher) handleCreate(path string, now time.Time) types.EventKind {
	kind := types.Created
	w.mu.Lock()
	if !w.lastRename.IsZero() && now.Sub(w.lastRename) <= renamePairWindow {
		kind = types.MovedTo
		w.lastRename = time.Time{}
	}
	w.mu.Unlock()

	info, err := os.Lstat(path)
	if err != nil {
		return kind // Gone already, the engine tolerates that
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		return kind
	}

	if info.IsDir() && w.recursive {
		_ = w.addWatch(path)

		// Subdirectories may have been created along with it.
		_ = filepath.WalkDir(path, func(subpath string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil //nolint:nilerr // Skip entries with errors
			}
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if d.IsDir() && subpath != path {
				_ = w.addWatch(subpath)
			}
			return nil
		})
	}

	return kind
}

// dropWatches removes the watch on path and everything under it.
func (w *Watcher) dropWatches(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paths[path] {
		_ = w.watcher.Remove(path)
		delete(w.paths, path)
	}

	for childPath := range w.paths {
		if isSubPath(childPath, path) {
			_ = w.watcher.Remove(childPath)
			delete(w.paths, childPath)
		}
	}
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
