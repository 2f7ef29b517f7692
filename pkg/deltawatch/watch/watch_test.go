package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
)

// collector accumulates handler callbacks for polling in tests.
type collector struct {
	mu     sync.Mutex
	events []types.Event
}

func (c *collector) handle(ev types.Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) snapshot() []types.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Event, len(c.events))
	copy(out, c.events)
	return out
}

// waitFor polls until pred passes or the deadline expires.
func (c *collector) waitFor(t *testing.T, pred func([]types.Event) bool) []types.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		evs := c.snapshot()
		if pred(evs) {
			return evs
		}
		time.Sleep(50 * time.Millisecond)
	}
	return c.snapshot()
}

func newWatcher(t *testing.T, recursive bool) *Watcher {
	t.Helper()
	w, err := New(recursive)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestWatchTracksSubdirectories(t *testing.T) {
	w := newWatcher(t, true)

	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	w.mu.RLock()
	_, rootTracked := w.paths[tmpDir]
	_, subDirTracked := w.paths[subDir]
	w.mu.RUnlock()

	if !rootTracked {
		t.Error("Watch() did not track root directory")
	}
	if !subDirTracked {
		t.Error("Watch() did not track subdirectory")
	}
}

func TestWatchNonRecursiveSkipsSubdirectories(t *testing.T) {
	w := newWatcher(t, false)

	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	w.mu.RLock()
	_, rootTracked := w.paths[tmpDir]
	_, subDirTracked := w.paths[subDir]
	w.mu.RUnlock()

	if !rootTracked {
		t.Error("Watch() did not track root directory")
	}
	if subDirTracked {
		t.Error("Watch() tracked a subdirectory in non-recursive mode")
	}
}

func TestWatchNonExistent(t *testing.T) {
	w := newWatcher(t, true)

	if err := w.Watch("/nonexistent/path/that/does/not/exist"); err == nil {
		t.Error("Watch() should return error for non-existent path")
	}
}

func TestUnwatch(t *testing.T) {
	w := newWatcher(t, true)

	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	w.Unwatch(tmpDir)

	if n := w.WatchedDirs(); n != 0 {
		t.Errorf("Unwatch() left %d watched directories", n)
	}
}

func TestRunEmitsCreated(t *testing.T) {
	w := newWatcher(t, true)

	tmpDir := t.TempDir()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := &collector{}
	go w.Run(ctx, c.handle)
	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(tmpDir, "testfile.txt")
	if err := os.WriteFile(testFile, []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	events := c.waitFor(t, func(evs []types.Event) bool { return len(evs) > 0 })

	found := false
	for _, ev := range events {
		if ev.Path == testFile && (ev.Kind == types.Created || ev.Kind == types.Modified) {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Run() did not emit creation event, got: %v", events)
	}
}

func TestRunEmitsModified(t *testing.T) {
	w := newWatcher(t, true)

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "testfile.txt")
	if err := os.WriteFile(testFile, []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := &collector{}
	go w.Run(ctx, c.handle)
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(testFile, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("failed to modify test file: %v", err)
	}

	events := c.waitFor(t, func(evs []types.Event) bool {
		for _, ev := range evs {
			if ev.Kind == types.Modified && ev.Path == testFile {
				return true
			}
		}
		return false
	})

	found := false
	for _, ev := range events {
		if ev.Path == testFile && ev.Kind == types.Modified {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Run() did not emit modification event, got: %v", events)
	}
}

func TestRunEmitsDeleted(t *testing.T) {
	w := newWatcher(t, true)

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "testfile.txt")
	if err := os.WriteFile(testFile, []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := &collector{}
	go w.Run(ctx, c.handle)
	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(testFile); err != nil {
		t.Fatalf("failed to delete test file: %v", err)
	}

	events := c.waitFor(t, func(evs []types.Event) bool {
		for _, ev := range evs {
			if ev.Kind == types.Deleted && ev.Path == testFile {
				return true
			}
		}
		return false
	})

	found := false
	for _, ev := range events {
		if ev.Path == testFile && ev.Kind == types.Deleted {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Run() did not emit deletion event, got: %v", events)
	}
}

func TestRunPairsRenameIntoMove(t *testing.T) {
	w := newWatcher(t, true)

	tmpDir := t.TempDir()
	oldPath := filepath.Join(tmpDir, "old.txt")
	newPath := filepath.Join(tmpDir, "new.txt")
	if err := os.WriteFile(oldPath, []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := &collector{}
	go w.Run(ctx, c.handle)
	time.Sleep(100 * time.Millisecond)

	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatalf("failed to rename: %v", err)
	}

	events := c.waitFor(t, func(evs []types.Event) bool {
		var from, to bool
		for _, ev := range evs {
			if ev.Kind == types.MovedFrom && ev.Path == oldPath {
				from = true
			}
			if ev.Kind == types.MovedTo && ev.Path == newPath {
				to = true
			}
		}
		return from && to
	})

	var from, to bool
	for _, ev := range events {
		if ev.Kind == types.MovedFrom && ev.Path == oldPath {
			from = true
		}
		if ev.Kind == types.MovedTo && ev.Path == newPath {
			to = true
		}
	}
	if !from {
		t.Errorf("Run() did not emit MovedFrom for %s, got: %v", oldPath, events)
	}
	if !to {
		t.Errorf("Run() did not emit MovedTo for %s, got: %v", newPath, events)
	}
}

func TestRunContextCancellation(t *testing.T) {
	w := newWatcher(t, true)

	tmpDir := t.TempDir()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx, nil)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Run() did not return after context cancellation")
	}
}

func TestWatchIgnoresSymlinks(t *testing.T) {
	w := newWatcher(t, true)

	tmpDir := t.TempDir()
	realDir := filepath.Join(tmpDir, "real")
	symlink := filepath.Join(tmpDir, "symlink")

	if err := os.MkdirAll(realDir, 0o755); err != nil {
		t.Fatalf("failed to create real dir: %v", err)
	}
	if err := os.Symlink(realDir, symlink); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if _, tracked := w.paths[realDir]; !tracked {
		t.Error("Watch() did not track real directory")
	}
	if _, tracked := w.paths[symlink]; tracked {
		t.Error("Watch() followed a symlink")
	}
}

func TestClose(t *testing.T) {
	w, err := New(true)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewDirectoryWatchAdded(t *testing.T) {
	w := newWatcher(t, true)

	tmpDir := t.TempDir()
	if err := w.Watch(tmpDir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := &collector{}
	go w.Run(ctx, c.handle)
	time.Sleep(100 * time.Millisecond)

	newDir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(newDir, 0o755); err != nil {
		t.Fatalf("failed to create new dir: %v", err)
	}

	c.waitFor(t, func(evs []types.Event) bool { return len(evs) > 0 })
	time.Sleep(200 * time.Millisecond)

	w.mu.RLock()
	_, tracked := w.paths[newDir]
	w.mu.RUnlock()

	if !tracked {
		t.Error("Run() did not add watch for newly created directory")
	}
}
