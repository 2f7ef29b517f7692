// Package baseline walks a watched root with fastwalk and seeds the engine's
// file size ledger, so deletions and modifications of files that existed
// before the watch started are attributed with their true sizes.
package baseline

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/exclude"
)

// Primer receives file size baselines. *engine.Engine satisfies it.
type Primer interface {
	Prime(path string, size int64)
}

// Progress reports scan progress.
type Progress struct {
	Root         string
	DirsScanned  int64
	FilesScanned int64
	CurrentPath  string
}

// Result contains the final scan results.
type Result struct {
	Root       string
	DirsSeen   int64
	FilesSeen  int64
	TotalBytes int64
	Duration   time.Duration
}

// ProgressFunc is called with progress updates.
type ProgressFunc func(Progress)

// Scanner seeds a Primer from a filesystem walk.
type Scanner struct {
	primer    Primer
	excl      *exclude.Set
	recursive bool
}

// New creates a scanner. A nil exclusion set excludes nothing.
func New(primer Primer, excl *exclude.Set, recursive bool) *Scanner {
	return &Scanner{primer: primer, excl: excl, recursive: recursive}
}

// scanState holds counters shared between walker goroutines and the
// progress reporter.
type scanState struct {
	dirsScanned  atomic.Int64
	filesScanned atomic.Int64
	totalBytes   atomic.Int64
	currentPath  atomic.Value
}

// Scan walks root and primes every regular file's size. Unreadable entries
// are skipped, the walk continues.
func (s *Scanner) Scan(ctx context.Context, root string, onProgress ProgressFunc) (*Result, error) {
	startTime := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	state := &scanState{}
	state.currentPath.Store("")

	done := s.startProgressReporter(ctx, absRoot, state, onProgress)
	defer func() {
		close(done)
		s.sendProgress(absRoot, state, onProgress)
	}()

	err = s.walk(ctx, absRoot, state)
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	return &Result{
		Root:       absRoot,
		DirsSeen:   state.dirsScanned.Load(),
		FilesSeen:  state.filesScanned.Load(),
		TotalBytes: state.totalBytes.Load(),
		Duration:   time.Since(startTime),
	}, nil
}

func (s *Scanner) walk(ctx context.Context, absRoot string, state *scanState) error {
	conf := fastwalk.Config{
		Follow: false,
	}

	return fastwalk.Walk(&conf, absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			return nil //nolint:nilerr // Intentionally skip errors and continue walking
		}

		if d.IsDir() {
			if !s.recursive && path != absRoot {
				return filepath.SkipDir
			}
			state.dirsScanned.Add(1)
			state.currentPath.Store(path)
			return nil
		}

		if s.excl.Match(path) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil //nolint:nilerr // Intentionally skip entries we can't stat
		}

		s.primer.Prime(path, info.Size())
		state.filesScanned.Add(1)
		state.totalBytes.Add(info.Size())
		return nil
	})
}

// sendProgress sends a progress update if a callback is provided.
func (s *Scanner) sendProgress(absRoot string, state *scanState, onProgress ProgressFunc) {
	if onProgress != nil {
		cp, _ := state.currentPath.Load().(string)
		onProgress(Progress{
			Root:         absRoot,
			DirsScanned:  state.dirsScanned.Load(),
			FilesScanned: state.filesScanned.Load(),
			CurrentPath:  cp,
		})
	}
}

// startProgressReporter starts the periodic progress goroutine.
func (s *Scanner) startProgressReporter(ctx context.Context, absRoot string, state *scanState, onProgress ProgressFunc) chan struct{} {
	done := make(chan struct{})

	s.sendProgress(absRoot, state, onProgress)

	if onProgress != nil {
		go func() {
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.sendProgress(absRoot, state, onProgress)
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return done
}
