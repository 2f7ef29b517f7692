package baseline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/exclude"
)

type recordingPrimer struct {
	mu    sync.Mutex
	sizes map[string]int64
}

func newRecordingPrimer() *recordingPrimer {
	return &recordingPrimer{sizes: make(map[string]int64)}
}

func (p *recordingPrimer) Prime(path string, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes[path] = size
}

func (p *recordingPrimer) get(path string) (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sizes[path]
	return s, ok
}

func (p *recordingPrimer) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sizes)
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestScanPrimesAllFiles(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, filepath.Join(root, "a.bin"), 100)
	writeFile(t, filepath.Join(sub, "b.bin"), 250)

	primer := newRecordingPrimer()
	s := New(primer, nil, true)

	res, err := s.Scan(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), res.FilesSeen)
	assert.Equal(t, int64(350), res.TotalBytes)
	size, ok := primer.get(filepath.Join(sub, "b.bin"))
	require.True(t, ok)
	assert.Equal(t, int64(250), size)
}

func TestScanNonRecursiveSkipsSubdirectories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, filepath.Join(root, "top.bin"), 100)
	writeFile(t, filepath.Join(sub, "nested.bin"), 250)

	primer := newRecordingPrimer()
	s := New(primer, nil, false)

	res, err := s.Scan(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.FilesSeen)
	_, ok := primer.get(filepath.Join(sub, "nested.bin"))
	assert.False(t, ok)
}

func TestScanHonorsExclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), 10)
	writeFile(t, filepath.Join(root, "skip.tmp"), 20)

	primer := newRecordingPrimer()
	s := New(primer, exclude.New([]string{"*.tmp"}), true)

	res, err := s.Scan(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.FilesSeen)
	assert.Equal(t, 1, primer.len())
}

func TestScanCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.bin"), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(newRecordingPrimer(), nil, true)
	res, err := s.Scan(ctx, root, nil)

	// Cancellation is not an error, the partial result is returned.
	require.NoError(t, err)
	require.NotNil(t, res)
}

func TestScanReportsProgress(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.bin"), 10)

	var mu sync.Mutex
	var calls int
	s := New(newRecordingPrimer(), nil, true)
	_, err := s.Scan(context.Background(), root, func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		assert.Equal(t, root, p.Root)
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 2, "initial and final progress at minimum")
}

func TestScanSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.bin")
	writeFile(t, target, 100)
	link := filepath.Join(root, "link.bin")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	primer := newRecordingPrimer()
	s := New(primer, nil, true)
	res, err := s.Scan(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.FilesSeen)
	_, ok := primer.get(link)
	assert.False(t, ok)
}
