package monitor

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/pulse/internal/view"
)

// KeyMap holds the dashboard's key bindings. The help overlay and footer
// hints are generated from the same bindings.
type KeyMap struct {
	Quit        key.Binding
	SwitchPanel key.Binding
	Up          key.Binding
	Down        key.Binding
	First       key.Binding
	Last        key.Binding
	Refresh     key.Binding
	CycleSort   key.Binding
	ToggleDir   key.Binding
	Filter      key.Binding
	ClearFilter key.Binding
	Help        key.Binding

	// Filter mode
	ApplyFilter key.Binding
	CancelInput key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		SwitchPanel: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "select previous")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "select next")),
		First:       key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home/g", "select first")),
		Last:        key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end/G", "select last")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh now")),
		CycleSort:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort column")),
		ToggleDir:   key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "toggle sort direction")),
		Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		ClearFilter: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),

		ApplyFilter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "keep filter")),
		CancelInput: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear and close")),
	}
}

// helpBindings is the order shown in the help overlay.
func (k KeyMap) helpBindings() []key.Binding {
	return []key.Binding{
		k.Quit, k.SwitchPanel, k.Up, k.Down, k.First, k.Last,
		k.Refresh, k.CycleSort, k.ToggleDir, k.Filter, k.ClearFilter, k.Help,
	}
}

// footerBindings are the hints shown in the status bar.
func (k KeyMap) footerBindings() []key.Binding {
	return []key.Binding{k.Quit, k.SwitchPanel, k.Up, k.Down, k.Refresh, k.CycleSort, k.Filter, k.Help}
}

// HandleKeyMsg processes keyboard input. It reports whether the key was
// consumed and any command to run.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	// ctrl+c always quits, even while typing a filter.
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return true, tea.Quit
	}

	// Any key closes the help overlay.
	if m.showHelp {
		m.showHelp = false
		return true, nil
	}

	if m.state.Frame().Mode == view.ModeFilter {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return true, nil

	case key.Matches(msg, m.keys.SwitchPanel):
		m.state.SwitchPanel()
		return true, nil

	case key.Matches(msg, m.keys.Up):
		m.state.MoveSelection(-1)
		return true, nil

	case key.Matches(msg, m.keys.Down):
		m.state.MoveSelection(1)
		return true, nil

	case key.Matches(msg, m.keys.First):
		m.state.SelectFirst()
		return true, nil

	case key.Matches(msg, m.keys.Last):
		m.state.SelectLast()
		return true, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.state.RequestRefresh() {
			m.notice = ""
		} else {
			m.notice = "refresh already in progress"
		}
		return true, nil

	case key.Matches(msg, m.keys.CycleSort):
		m.state.CycleSort()
		return true, nil

	case key.Matches(msg, m.keys.ToggleDir):
		m.state.ToggleDirection()
		return true, nil

	case key.Matches(msg, m.keys.Filter):
		m.state.EnterFilterMode()
		m.filter.SetValue(m.state.Frame().Filter)
		m.filter.CursorEnd()
		return true, m.filter.Focus()

	case key.Matches(msg, m.keys.ClearFilter):
		m.state.ClearFilter()
		m.filter.Reset()
		return true, nil
	}

	return false, nil
}

// handleFilterKey edits the filter text. Every keystroke re-filters so the
// lists narrow while typing.
func (m *Model) handleFilterKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.CancelInput):
		m.state.ClearFilter()
		m.filter.Reset()
		m.filter.Blur()
		return true, nil

	case key.Matches(msg, m.keys.ApplyFilter):
		m.state.ExitFilterMode()
		m.filter.Blur()
		return true, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.state.SetFilter(m.filter.Value())
	return true, cmd
}
