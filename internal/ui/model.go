package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rclampitt/stratum/internal/layer"
	"github.com/rclampitt/stratum/internal/prefs"
	"github.com/rclampitt/stratum/internal/state"
)

// Options configure the UI.
type Options struct {
	Context    context.Context
	Record     *layer.Record
	Store      *state.Store
	Scale      float64
	PollTick   time.Duration
	ThemeName  string
	ShowCounts bool
	PrefsPath  string
}

// Run starts the TUI and blocks until the user exits or the context dies.
func Run(opts Options) error {
	if opts.PollTick <= 0 {
		opts.PollTick = time.Second
	}
	m := newModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	return err
}

type tickMsg time.Time

type applyMsg struct {
	err error
}

// Model is the bubbletea model for the layer tree view.
type Model struct {
	opts Options
	keys keyMap

	theme      Theme
	showCounts bool

	snapshot state.Snapshot
	cursor   int
	applyErr error

	spin   spinner.Model
	width  int
	height int
}

func newModel(opts Options) Model {
	theme := GetTheme(opts.ThemeName)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))
	return Model{
		opts:       opts,
		keys:       defaultKeyMap(),
		theme:      theme,
		showCounts: opts.ShowCounts,
		spin:       sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		func() tea.Msg { return tickMsg(time.Now()) },
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.snapshot = m.opts.Store.Snapshot()
		m.clampCursor()
		return m, m.tickCmd()

	case applyMsg:
		m.applyErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snapshot.Rows)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleVisible):
		return m.toggleVisible()

	case key.Matches(msg, m.keys.ToggleQuery):
		if row, ok := m.selectedLeaf(); ok {
			h := m.opts.Record.Handle(row.ID)
			h.SetQueryable(!h.Queryable())
		}
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Counts):
		m.showCounts = !m.showCounts
		m.savePrefs()
		return m, nil
	}
	return m, nil
}

// toggleVisible flips the selected leaf's visibility and pushes the aggregate
// visible set to the service in the background.
func (m Model) toggleVisible() (tea.Model, tea.Cmd) {
	row, ok := m.selectedLeaf()
	if !ok {
		return m, nil
	}
	h := m.opts.Record.Handle(row.ID)
	h.SetVisible(!h.Visible())

	rec := m.opts.Record
	ctx := m.opts.Context
	return m, func() tea.Msg {
		return applyMsg{err: rec.ApplyVisibleLayers(ctx)}
	}
}

func (m Model) selectedLeaf() (state.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Rows) {
		return state.Row{}, false
	}
	row := m.snapshot.Rows[m.cursor]
	if row.Group {
		return state.Row{}, false
	}
	return row, true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snapshot.Rows) {
		m.cursor = len(m.snapshot.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// savePrefs persists theme and display toggles. Best effort: a failed write
// never interrupts the session.
func (m Model) savePrefs() {
	_ = prefs.Save(m.opts.PrefsPath, prefs.Prefs{
		Theme:      m.theme.Name,
		ShowCounts: m.showCounts,
	})
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.PollTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
