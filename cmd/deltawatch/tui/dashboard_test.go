package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/broadcast"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/engine"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
)

func testEngine(t *testing.T) (*engine.Engine, string) {
	t.Helper()
	e, err := engine.New(engine.Config{})
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.Record(types.Event{Kind: types.Created, Path: path, Time: time.Now()}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	return e, dir
}

func TestNewModelInitialState(t *testing.T) {
	e, dir := testEngine(t)
	m := NewModel(Options{Root: dir, Top: 5, Refresh: time.Second, Engine: e})

	if m.state != StateDashboard {
		t.Errorf("expected StateDashboard without baseline, got %v", m.state)
	}
	if m.showEvents {
		t.Error("expected events panel hidden by default")
	}
	if m.width != 80 || m.height != 24 {
		t.Errorf("unexpected default dimensions %dx%d", m.width, m.height)
	}
}

func TestModelSubscribesToBroadcaster(t *testing.T) {
	e, dir := testEngine(t)
	b := broadcast.New()
	defer b.Close()

	m := NewModel(Options{Root: dir, Engine: e, Broadcaster: b})
	if m.sub == nil {
		t.Fatal("expected a broadcast subscription")
	}
	if b.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", b.SubscriberCount())
	}
}

func TestUpdateWindowSize(t *testing.T) {
	e, dir := testEngine(t)
	m := NewModel(Options{Root: dir, Engine: e})

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	got := updated.(Model)
	if got.width != 120 || got.height != 40 {
		t.Errorf("dimensions = %dx%d, want 120x40", got.width, got.height)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	e, dir := testEngine(t)
	b := broadcast.New()
	defer b.Close()
	m := NewModel(Options{Root: dir, Engine: e, Broadcaster: b})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("expected tea.Quit, got %v", msg)
	}
	if b.SubscriberCount() != 0 {
		t.Error("quit did not unsubscribe from the broadcaster")
	}
}

func TestUpdateToggleEvents(t *testing.T) {
	e, dir := testEngine(t)
	m := NewModel(Options{Root: dir, Engine: e})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	got := updated.(Model)
	if !got.showEvents {
		t.Error("'e' did not enable the events panel")
	}

	updated, _ = got.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	got = updated.(Model)
	if got.showEvents {
		t.Error("'e' did not disable the events panel")
	}
}

func TestUpdateTickRefreshes(t *testing.T) {
	e, dir := testEngine(t)
	m := NewModel(Options{Root: dir, Engine: e, Refresh: time.Second})

	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick did not schedule the next refresh")
	}
}

func TestDashboardViewShowsDirs(t *testing.T) {
	e, dir := testEngine(t)
	m := NewModel(Options{Root: dir, Top: 5, Engine: e})

	view := m.View()
	if !strings.Contains(view, "deltawatch") {
		t.Error("view missing title")
	}
	if !strings.Contains(view, "+2.0 KiB") {
		t.Errorf("view missing delta column:\n%s", view)
	}
	if !strings.Contains(view, filepath.Base(dir)) {
		t.Errorf("view missing directory:\n%s", view)
	}
	if !strings.Contains(view, "1 events") {
		t.Errorf("view missing totals:\n%s", view)
	}
}

func TestDashboardViewEventsPanel(t *testing.T) {
	e, dir := testEngine(t)
	m := NewModel(Options{Root: dir, Top: 5, Engine: e, ShowEvents: true, EventCount: 10})

	view := m.View()
	if !strings.Contains(view, "Recent events") {
		t.Error("view missing events panel")
	}
	if !strings.Contains(view, "created") {
		t.Errorf("view missing event kind:\n%s", view)
	}
}

func TestRenderDelta(t *testing.T) {
	tests := []struct {
		delta int64
		want  string
	}{
		{2048, "+2.0 KiB"},
		{-2048, "-2.0 KiB"},
		{0, "0 B"},
	}
	for _, tt := range tests {
		got := renderDelta(tt.delta)
		if !strings.Contains(got, tt.want) {
			t.Errorf("renderDelta(%d) = %q, want containing %q", tt.delta, got, tt.want)
		}
	}
}

func TestRepeatChar(t *testing.T) {
	tests := []struct {
		char     rune
		n        int
		expected string
	}{
		{'a', 0, ""},
		{'a', -1, ""},
		{'a', 5, "aaaaa"},
		{'─', 3, "───"},
	}

	for _, tt := range tests {
		result := repeatChar(tt.char, tt.n)
		if result != tt.expected {
			t.Errorf("repeatChar(%q, %d) = %q, want %q", tt.char, tt.n, result, tt.expected)
		}
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path     string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"/very/long/path/to/file.txt", 20, ".../path/to/file.txt"},
		{"abcd", 3, "abc"},
		{"abcdef", 4, "...f"},
	}

	for _, tt := range tests {
		result := truncatePath(tt.path, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.maxLen, result, tt.expected)
		}
	}
}

func TestPadLeft(t *testing.T) {
	tests := []struct {
		s        string
		width    int
		expected string
	}{
		{"ab", 5, "   ab"},
		{"abcde", 3, "abcde"},
		{"", 2, "  "},
	}

	for _, tt := range tests {
		result := padLeft(tt.s, tt.width)
		if result != tt.expected {
			t.Errorf("padLeft(%q, %d) = %q, want %q", tt.s, tt.width, result, tt.expected)
		}
	}
}
