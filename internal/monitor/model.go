package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rileyhilliard/pulse/internal/scheduler"
	"github.com/rileyhilliard/pulse/internal/ui"
	"github.com/rileyhilliard/pulse/internal/view"
)

// Default terminal size used before the first WindowSizeMsg arrives.
const (
	defaultWidth  = 120
	defaultHeight = 32
)

// clockInterval is how often the "refreshed ... ago" text is redrawn.
const clockInterval = time.Second

// Thresholds colors CPU and memory values.
type Thresholds struct {
	CPU    ui.Thresholds
	Memory ui.Thresholds
}

// Model is the Bubble Tea model for the dashboard. It owns no inventory of
// its own: every paint reads the current view.Frame, and every key is
// forwarded to view.State.
type Model struct {
	state      *view.State
	keys       KeyMap
	history    *History
	filter     textinput.Model
	spinner    spinner.Model
	thresholds Thresholds
	refreshing func() bool
	now        func() time.Time

	// lastRecorded is the snapshot already pushed into history.
	lastRecorded uuid.UUID
	// notice is a transient status message, cleared by the next cycle.
	notice string

	width    int
	height   int
	showHelp bool
	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithThresholds sets the warning and critical percentages.
func WithThresholds(t Thresholds) Option {
	return func(m *Model) { m.thresholds = t }
}

// WithRefreshing sets the function reporting whether a refresh cycle is
// running, normally backed by the scheduler's state.
func WithRefreshing(fn func() bool) Option {
	return func(m *Model) { m.refreshing = fn }
}

// WithClock overrides time.Now for rendering elapsed times.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// tickMsg redraws elapsed-time text and picks up new snapshots.
type tickMsg time.Time

// NewModel creates a dashboard model reading from state.
func NewModel(state *view.State, opts ...Option) Model {
	input := textinput.New()
	input.Prompt = "/"
	input.PromptStyle = FilterPromptStyle
	input.Placeholder = "filter by name"
	input.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = ui.SpinnerFrames
	sp.Style = lipgloss.NewStyle().Foreground(ColorGraph)

	m := Model{
		state:   state,
		keys:    DefaultKeyMap(),
		history: NewHistory(DefaultHistorySize),
		filter:  input,
		spinner: sp,
		thresholds: Thresholds{
			CPU:    ui.DefaultThresholds,
			Memory: ui.DefaultThresholds,
		},
		refreshing: func() bool { return false },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// RefreshingFunc adapts a scheduler's State method for WithRefreshing.
func RefreshingFunc(state func() scheduler.State) func() bool {
	return func() bool { return state() == scheduler.Refreshing }
}

// Init starts the clock and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.spinner.Tick)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filter.Width = max(msg.Width-8, 10)

	case scheduler.Cycle:
		m.notice = ""
		m.recordHistory()

	case tickMsg:
		m.recordHistory()
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard(m.state.Frame())
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// recordHistory pushes the current snapshot's CPU samples once per snapshot.
func (m *Model) recordHistory() {
	snap := m.state.Frame().Snapshot
	if snap == nil || snap.ID == m.lastRecorded {
		return
	}
	m.history.Record(snap)
	m.lastRecorded = snap.ID
}

// size returns the terminal size, falling back to defaults before the
// first resize message.
func (m Model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}
