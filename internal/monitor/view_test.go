package monitor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/view"
	"github.com/stretchr/testify/assert"
)

func TestView_BeforeFirstRefresh(t *testing.T) {
	m := NewModel(view.New())
	out := m.View()

	assert.Contains(t, out, "Hosts: 0/0")
	assert.Contains(t, out, "refreshed never")
	assert.Contains(t, out, "waiting for first refresh...")
	assert.Contains(t, out, "No host selected")
}

func TestView_Header(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()

	assert.Contains(t, out, "PULSE")
	assert.Contains(t, out, "Hosts: 1/2")
	assert.Contains(t, out, "Workloads: 1/3")
	assert.Contains(t, out, "Sort: name ↑")
	assert.Contains(t, out, "refreshed 5 seconds ago")
}

func TestView_HeaderFollowsSort(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "s", "s", "S")
	assert.Contains(t, m.View(), "Sort: cpu ↓")
}

func TestView_Panels(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()

	assert.Contains(t, out, "Hosts (1/2)")
	assert.Contains(t, out, "Workloads (1/3)")
	for _, name := range []string{"pve1", "pve2", "web", "db", "cache"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "ghost (unknown)", "workload on a missing host is still listed")
	assert.Contains(t, out, "paused")
}

func TestView_FitsTerminal(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 36)
	for i, line := range lines {
		assert.LessOrEqual(t, lipgloss.Width(line), 140, "line %d too wide", i)
	}
}

func TestView_ErrorSummaryKeepsRows(t *testing.T) {
	m, state := newTestModel(t)
	state.ApplyRefresh(nil, errors.New(errors.ErrAllSourcesFailed, "All sources failed: homelab", ""))

	out := m.View()
	assert.Contains(t, out, "✗ All sources failed: homelab")
	assert.Contains(t, out, "pve1", "last good snapshot stays on screen")
	assert.NotContains(t, out, "q quit")
}

func TestView_KeyHints(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	assert.Contains(t, out, "q quit")
	assert.Contains(t, out, "/ filter")
}

func TestView_Notice(t *testing.T) {
	m, state := newTestModel(t)
	state.SetTrigger(func() bool { return false })
	press(t, m, "r")

	assert.Contains(t, m.View(), "refresh already in progress")
}

func TestView_FilterInput(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "/", "z", "z")

	out := m.View()
	assert.Contains(t, out, "zz")
	assert.Contains(t, out, `no hosts match "zz"`)
	assert.Contains(t, out, `no workloads match "zz"`)
	assert.Contains(t, out, "/zz", "panel title shows the active filter")
}

func TestView_Spinner(t *testing.T) {
	m, _ := newTestModel(t)
	assert.NotContains(t, splitLines(m.View())[0], "◐")

	m, _ = newTestModel(t, WithRefreshing(func() bool { return true }))
	assert.Contains(t, splitLines(m.View())[0], "◐")
}

func TestView_Help(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "?")

	out := m.View()
	assert.Contains(t, out, "Keyboard Shortcuts")
	assert.Contains(t, out, "toggle sort direction")
	assert.Contains(t, out, "While filtering")
	assert.Contains(t, out, "Press any key to close")
}

func TestView_ScrollsToCursor(t *testing.T) {
	hosts := make([]inventory.Host, 40)
	for i := range hosts {
		hosts[i] = inventory.Host{Source: "lab", Name: fmt.Sprintf("host%02d", i), Status: inventory.HostOnline}
	}
	state := view.New()
	state.ApplyRefresh(&inventory.Snapshot{ID: uuid.New(), Taken: refreshTime, Hosts: hosts}, nil)

	m := NewModel(state)
	m.width, m.height = 120, 20
	state.SelectLast()

	out := m.View()
	assert.Contains(t, out, "host39")
	assert.Contains(t, out, "host32")
	assert.NotContains(t, out, "host31")
	assert.NotContains(t, out, "host00")
}

func TestEmptyText(t *testing.T) {
	assert.Equal(t, "waiting for first refresh...", emptyText(&view.Frame{}, "hosts"))
	refreshed := &view.Frame{Snapshot: &inventory.Snapshot{}}
	assert.Equal(t, "no hosts", emptyText(refreshed, "hosts"))
	refreshed.Filter = "x"
	assert.Equal(t, `no workloads match "x"`, emptyText(refreshed, "workloads"))
}

func TestMemUsedText(t *testing.T) {
	assert.Equal(t, "?", memUsedText(100, 0))
	assert.Equal(t, "1.0 GB", memUsedText(1<<30, 2<<30))
}
