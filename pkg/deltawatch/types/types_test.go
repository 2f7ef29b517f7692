package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{Created, "created"},
		{Modified, "modified"},
		{Deleted, "deleted"},
		{MovedFrom, "moved_from"},
		{MovedTo, "moved_to"},
		{EventKind(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestEventKindValid(t *testing.T) {
	assert.True(t, Created.Valid())
	assert.True(t, MovedTo.Valid())
	assert.False(t, EventKind(-1).Valid())
	assert.False(t, EventKind(5).Valid())
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "1.0 KiB", FormatSize(1024))
	assert.Equal(t, "-1.0 KiB", FormatSize(-1024))
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "0 B", FormatDelta(0))
	assert.Equal(t, "+512 B", FormatDelta(512))
	assert.Equal(t, "-1.5 MiB", FormatDelta(-(1536 * 1024)))
}

func TestFormatAgo(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "5s", FormatAgo(now.Add(-5*time.Second), now))
	assert.Equal(t, "3m", FormatAgo(now.Add(-3*time.Minute), now))
	assert.Equal(t, "2h", FormatAgo(now.Add(-2*time.Hour), now))
	assert.Equal(t, "0s", FormatAgo(now.Add(time.Minute), now))
}
