package monitor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/pulse/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keyMsg builds a KeyMsg from the name Bubble Tea would report for it.
func keyMsg(name string) tea.KeyMsg {
	switch name {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
	}
}

func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		update(t, m, keyMsg(k))
	}
}

func TestKeyMsgNames(t *testing.T) {
	for _, name := range []string{"tab", "up", "down", "home", "end", "esc", "enter", "ctrl+c", "j", "G", "/"} {
		assert.Equal(t, name, keyMsg(name).String())
	}
}

func TestHandleKey_Navigation(t *testing.T) {
	m, state := newTestModel(t)

	press(t, m, "j")
	assert.Equal(t, 1, state.Frame().HostCursor)

	press(t, m, "down") // already on the last host
	assert.Equal(t, 1, state.Frame().HostCursor)

	press(t, m, "k")
	assert.Equal(t, 0, state.Frame().HostCursor)

	press(t, m, "up")
	assert.Equal(t, 0, state.Frame().HostCursor)

	press(t, m, "tab", "G")
	f := state.Frame()
	assert.Equal(t, view.PanelWorkloads, f.Panel)
	assert.Equal(t, 2, f.WorkloadCursor)
	assert.Equal(t, 0, f.HostCursor, "hosts cursor is untouched")

	press(t, m, "g")
	assert.Equal(t, 0, state.Frame().WorkloadCursor)

	press(t, m, "end", "home")
	assert.Equal(t, 0, state.Frame().WorkloadCursor)
}

func TestHandleKey_Sort(t *testing.T) {
	m, state := newTestModel(t)

	press(t, m, "s")
	assert.Equal(t, view.SortStatus, state.Frame().Sort)

	press(t, m, "S")
	assert.Equal(t, view.Descending, state.Frame().Dir)

	press(t, m, "S")
	assert.Equal(t, view.Ascending, state.Frame().Dir)
}

func TestHandleKey_FilterTyping(t *testing.T) {
	m, state := newTestModel(t)
	press(t, m, "tab")

	press(t, m, "/")
	require.Equal(t, view.ModeFilter, state.Frame().Mode)

	// Keys that normally navigate are text while filtering.
	press(t, m, "d", "b")
	f := state.Frame()
	assert.Equal(t, "db", f.Filter)
	require.Len(t, f.Workloads, 1)
	assert.Equal(t, "db", f.Workloads[0].Name)

	press(t, m, "backspace")
	assert.Equal(t, "d", state.Frame().Filter)

	press(t, m, "enter")
	f = state.Frame()
	assert.Equal(t, view.ModeNormal, f.Mode)
	assert.Equal(t, "d", f.Filter, "enter keeps the filter")

	// Reopening the filter starts from the current text.
	press(t, m, "/", "b")
	assert.Equal(t, "db", state.Frame().Filter)

	press(t, m, "esc")
	f = state.Frame()
	assert.Equal(t, view.ModeNormal, f.Mode)
	assert.Empty(t, f.Filter)
	assert.Len(t, f.Workloads, 3)
}

func TestHandleKey_EscClearsFilterInNormalMode(t *testing.T) {
	m, state := newTestModel(t)

	press(t, m, "/", "p", "v", "e", "1", "enter")
	require.Equal(t, "pve1", state.Frame().Filter)

	press(t, m, "esc")
	assert.Empty(t, state.Frame().Filter)
	assert.Empty(t, m.filter.Value())
}

func TestHandleKey_Help(t *testing.T) {
	m, state := newTestModel(t)

	press(t, m, "?")
	assert.True(t, m.showHelp)

	// Any key closes help without acting on it.
	press(t, m, "j")
	assert.False(t, m.showHelp)
	assert.Equal(t, 0, state.Frame().HostCursor)
}

func TestHandleKey_Refresh(t *testing.T) {
	m, state := newTestModel(t)

	accepted := false
	state.SetTrigger(func() bool { return accepted })

	press(t, m, "r")
	assert.Equal(t, "refresh already in progress", m.notice)

	accepted = true
	press(t, m, "r")
	assert.Empty(t, m.notice)
}

func TestHandleKey_Quit(t *testing.T) {
	tests := []struct {
		name string
		keys []string
	}{
		{name: "q", keys: []string{"q"}},
		{name: "ctrl+c", keys: []string{"ctrl+c"}},
		{name: "ctrl+c while filtering", keys: []string{"/", "ctrl+c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			var cmd tea.Cmd
			for _, k := range tt.keys {
				cmd = update(t, m, keyMsg(k))
			}
			assert.True(t, m.Quitting())
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestHandleKey_QIsTextWhileFiltering(t *testing.T) {
	m, state := newTestModel(t)
	press(t, m, "/", "q")

	assert.False(t, m.Quitting())
	assert.Equal(t, "q", state.Frame().Filter)
}

func TestHandleKey_Unhandled(t *testing.T) {
	m, _ := newTestModel(t)
	handled, cmd := m.HandleKeyMsg(keyMsg("x"))
	assert.False(t, handled)
	assert.Nil(t, cmd)
}
