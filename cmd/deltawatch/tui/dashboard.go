package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/baseline"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/broadcast"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/engine"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/history"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/probe"
	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
)

// AppState represents the current state of the application.
type AppState int

const (
	StateBaseline AppState = iota
	StateDashboard
)

// Options configures the TUI application.
type Options struct {
	Root       string
	Window     time.Duration
	Top        int
	Refresh    time.Duration
	ShowEvents bool
	EventCount int

	Engine      *engine.Engine
	Broadcaster *broadcast.Broadcaster

	// Baseline, when non-nil, is scanned before the dashboard appears.
	Baseline *baseline.Scanner
}

// Model is the main Bubble Tea model for the deltawatch TUI.
type Model struct {
	state   AppState
	options Options

	sub *broadcast.Subscriber

	// Baseline state
	baselineSpinner  spinner.Model
	baselineProgress baseline.Progress
	baselineResult   *baseline.Result
	baselineErr      error
	baselineChan     chan baseline.Progress

	// Dashboard state
	lastEvent    *history.Record
	showEvents   bool
	freeSpace    uint64
	hasFreeSpace bool

	// Window dimensions
	width  int
	height int
}

// NewModel creates a new TUI model with the given options.
func NewModel(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentColor)

	state := StateDashboard
	if opts.Baseline != nil {
		state = StateBaseline
	}

	var sub *broadcast.Subscriber
	if opts.Broadcaster != nil {
		sub = opts.Broadcaster.Subscribe(opts.Root, 0)
	}

	var baselineChan chan baseline.Progress
	if opts.Baseline != nil {
		baselineChan = make(chan baseline.Progress, 100)
	}

	return Model{
		state:           state,
		options:         opts,
		sub:             sub,
		baselineSpinner: s,
		baselineChan:    baselineChan,
		showEvents:      opts.ShowEvents,
		width:           80,
		height:          24,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick()}
	if m.sub != nil {
		cmds = append(cmds, m.listenForEvents())
	}
	if m.state == StateBaseline {
		cmds = append(cmds, m.baselineSpinner.Tick, m.startBaseline(), m.listenForBaseline())
	}
	return tea.Batch(cmds...)
}

// tickMsg triggers a periodic dashboard refresh.
type tickMsg time.Time

// tick returns a command that refreshes the dashboard at the configured
// interval.
func (m Model) tick() tea.Cmd {
	interval := m.options.Refresh
	if interval <= 0 {
		interval = time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// eventMsg carries one attributed event from the broadcaster.
type eventMsg history.Record

// eventsClosedMsg signals that the subscription channel was closed.
type eventsClosedMsg struct{}

// listenForEvents returns a command that waits for the next broadcast event.
func (m Model) listenForEvents() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		rec, ok := <-sub.Events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(rec)
	}
}

// baselineDoneMsg reports baseline scan completion.
type baselineDoneMsg struct {
	result *baseline.Result
	err    error
}

// baselineProgressMsg carries a baseline scan progress update.
type baselineProgressMsg baseline.Progress

// startBaseline runs the baseline scan in the background.
func (m Model) startBaseline() tea.Cmd {
	scanner := m.options.Baseline
	root := m.options.Root
	progressChan := m.baselineChan
	return func() tea.Msg {
		res, err := scanner.Scan(context.Background(), root, func(p baseline.Progress) {
			select {
			case progressChan <- p:
			default:
				// Channel full, skip this update
			}
		})
		close(progressChan)
		return baselineDoneMsg{result: res, err: err}
	}
}

// listenForBaseline returns a command that waits for baseline progress.
func (m Model) listenForBaseline() tea.Cmd {
	progressChan := m.baselineChan
	return func() tea.Msg {
		p, ok := <-progressChan
		if !ok {
			return nil
		}
		return baselineProgressMsg(p)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if free, err := probe.FreeSpace(m.options.Root); err == nil {
			m.freeSpace = free
			m.hasFreeSpace = true
		}
		return m, m.tick()

	case eventMsg:
		rec := history.Record(msg)
		m.lastEvent = &rec
		return m, m.listenForEvents()

	case eventsClosedMsg:
		return m, nil

	case baselineProgressMsg:
		m.baselineProgress = baseline.Progress(msg)
		return m, m.listenForBaseline()

	case baselineDoneMsg:
		m.baselineResult = msg.result
		m.baselineErr = msg.err
		m.state = StateDashboard
		return m, nil

	case spinner.TickMsg:
		if m.state == StateBaseline {
			var cmd tea.Cmd
			m.baselineSpinner, cmd = m.baselineSpinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if m.sub != nil && m.options.Broadcaster != nil {
			m.options.Broadcaster.Unsubscribe(m.sub.ID)
		}
		return m, tea.Quit
	case "e":
		m.showEvents = !m.showEvents
	}
	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	switch m.state {
	case StateBaseline:
		return m.renderBaseline()
	case StateDashboard:
		return m.renderDashboard()
	}
	return ""
}

// renderBaseline renders the baseline scan view.
func (m Model) renderBaseline() string {
	contentWidth := m.width - 4

	var b strings.Builder
	b.WriteString(titleStyle.Render("  Building baseline..."))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s Scanning %s", m.baselineSpinner.View(), m.options.Root))
	b.WriteString("\n\n")
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  %d dirs, %d files",
		m.baselineProgress.DirsScanned, m.baselineProgress.FilesScanned)))
	b.WriteString("\n")

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// renderDashboard renders the live dashboard.
func (m Model) renderDashboard() string {
	contentWidth := m.width - 4

	var b strings.Builder
	b.WriteString(m.renderHeader(contentWidth))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderDirs(contentWidth))

	if m.showEvents {
		b.WriteString("\n")
		b.WriteString(renderDivider(contentWidth))
		b.WriteString("\n")
		b.WriteString(m.renderEvents(contentWidth))
	}

	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// renderHeader renders the title line and the totals line.
func (m Model) renderHeader(contentWidth int) string {
	totals := m.options.Engine.Totals()

	var b strings.Builder
	b.WriteString(titleStyle.Render("  deltawatch"))
	b.WriteString(mutedTextStyle.Render("  " + truncatePath(m.options.Root, contentWidth-14)))
	b.WriteString("\n")

	runtime := time.Since(totals.StartedAt).Round(time.Second)
	parts := []string{
		fmt.Sprintf("up %s", headerValueStyle.Render(runtime.String())),
		fmt.Sprintf("%s events", headerValueStyle.Render(fmt.Sprintf("%d", totals.TotalEvents))),
		fmt.Sprintf("%s dirs", headerValueStyle.Render(fmt.Sprintf("%d", totals.Directories))),
		fmt.Sprintf("%s files tracked", headerValueStyle.Render(fmt.Sprintf("%d", totals.TrackedFiles))),
	}
	if totals.ExcludedEvents > 0 {
		parts = append(parts, fmt.Sprintf("%s excluded", headerValueStyle.Render(fmt.Sprintf("%d", totals.ExcludedEvents))))
	}
	if m.hasFreeSpace {
		parts = append(parts, fmt.Sprintf("%s free", headerValueStyle.Render(humanize.IBytes(m.freeSpace))))
	}
	b.WriteString(mutedTextStyle.Render("  " + strings.Join(parts, "  ·  ")))

	if totals.TotalEvents > 0 {
		kinds := []types.EventKind{types.Created, types.Modified, types.Deleted, types.MovedFrom, types.MovedTo}
		var kindParts []string
		for _, k := range kinds {
			if n := totals.CountByKind[k]; n > 0 {
				kindParts = append(kindParts, fmt.Sprintf("%d %s", n, k))
			}
		}
		if len(kindParts) > 0 {
			b.WriteString("\n")
			b.WriteString(mutedTextStyle.Render("  " + strings.Join(kindParts, "  ·  ")))
		}
	}

	if m.baselineErr != nil {
		b.WriteString("\n")
		b.WriteString(errorTextStyle.Render("  baseline scan failed: " + m.baselineErr.Error()))
	} else if m.baselineResult != nil {
		b.WriteString("\n")
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  baseline: %d files (%s) in %s",
			m.baselineResult.FilesSeen,
			humanize.IBytes(uint64(m.baselineResult.TotalBytes)),
			m.baselineResult.Duration.Round(time.Millisecond))))
	}

	return b.String()
}

// renderDirs renders the top changed directories table.
func (m Model) renderDirs(contentWidth int) string {
	dirs := m.options.Engine.ChangedDirs(m.options.Window)
	top := m.options.Top
	if top > 0 && len(dirs) > top {
		dirs = dirs[:top]
	}

	var b strings.Builder
	windowLabel := "all time"
	if m.options.Window > 0 {
		windowLabel = "last " + m.options.Window.String()
	}
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  Changed directories (%s)", windowLabel)))
	b.WriteString("\n")

	if len(dirs) == 0 {
		b.WriteString(mutedTextStyle.Render("  no changes yet"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  %10s  %10s  %6s  %5s  %s",
		"DELTA", "SIZE", "EVENTS", "LAST", "DIRECTORY")))
	b.WriteString("\n")

	now := time.Now()
	pathWidth := contentWidth - 42
	for _, d := range dirs {
		b.WriteString(fmt.Sprintf("  %s  %s  %6d  %5s  %s\n",
			renderDelta(d.SizeDelta),
			sizeStyle.Render(padLeft(types.FormatSize(d.CurrentSize), 10)),
			d.EventCount,
			types.FormatAgo(d.LastChange, now),
			truncatePath(d.Dir, pathWidth)))
	}

	return b.String()
}

// renderDelta renders a signed delta with growth red and shrink green.
func renderDelta(delta int64) string {
	s := padLeft(types.FormatDelta(delta), 10)
	switch {
	case delta > 0:
		return growthStyle.Render(s)
	case delta < 0:
		return shrinkStyle.Render(s)
	default:
		return neutralDeltaStyle.Render(s)
	}
}

// renderEvents renders the recent events panel.
func (m Model) renderEvents(contentWidth int) string {
	count := m.options.EventCount
	if count <= 0 {
		count = 20
	}
	events := m.options.Engine.RecentEvents(count)

	var b strings.Builder
	b.WriteString(mutedTextStyle.Render("  Recent events"))
	b.WriteString("\n")

	if len(events) == 0 {
		b.WriteString(mutedTextStyle.Render("  none yet"))
		b.WriteString("\n")
		return b.String()
	}

	pathWidth := contentWidth - 35
	// Newest first, matching how eyes scan a live feed.
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		b.WriteString(fmt.Sprintf("  %s  %s %s  %s\n",
			mutedTextStyle.Render(ev.Time.Format("15:04:05")),
			eventKindStyle.Render(fmt.Sprintf("%-9s", ev.Kind)),
			renderDelta(ev.SizeDelta),
			truncatePath(ev.Path, pathWidth)))
	}

	return b.String()
}

// renderFooter renders the key hints line.
func (m Model) renderFooter() string {
	hints := []string{
		keyStyle.Render("[e]") + " " + keyDescStyle.Render("events"),
		keyStyle.Render("[q]") + " " + keyDescStyle.Render("quit"),
	}
	return "  " + strings.Join(hints, "   ")
}

// Run starts the TUI application.
func Run(opts Options) error {
	model := NewModel(opts)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
