package monitor

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/scheduler"
	"github.com/rileyhilliard/pulse/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refreshTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func testSnapshot() *inventory.Snapshot {
	const gib = 1 << 30
	return &inventory.Snapshot{
		ID:    uuid.New(),
		Taken: refreshTime,
		Hosts: []inventory.Host{
			{Source: "homelab", Name: "pve1", Status: inventory.HostOnline, CPU: 12.5, MemUsed: 4 * gib, MemTotal: 16 * gib, Uptime: 3 * 86400},
			{Source: "homelab", Name: "pve2", Status: inventory.HostOffline},
		},
		Workloads: []inventory.Workload{
			{Source: "homelab", ID: 100, Name: "web", Host: "pve1", Kind: inventory.KindMachine, State: inventory.StateRunning, CPU: 95, MemUsed: gib, MemMax: 2 * gib, Uptime: 600},
			{Source: "homelab", ID: 101, Name: "db", Host: "pve1", Kind: inventory.KindMachine, State: inventory.StateStopped},
			{Source: "homelab", ID: 200, Name: "cache", Host: "ghost", Kind: inventory.KindContainer, State: inventory.StateTransitional, RawState: "paused"},
		},
		Sources: []inventory.SourceStatus{{Name: "homelab", Hosts: 2, Workloads: 3}},
	}
}

// newTestModel returns a model over a state holding testSnapshot.
func newTestModel(t *testing.T, opts ...Option) (*Model, *view.State) {
	t.Helper()
	state := view.New()
	state.ApplyRefresh(testSnapshot(), nil)
	opts = append([]Option{WithClock(func() time.Time { return refreshTime.Add(5 * time.Second) })}, opts...)
	m := NewModel(state, opts...)
	m.width, m.height = 140, 36
	return &m, state
}

func update(t *testing.T, m *Model, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	*m = nm
	return cmd
}

func TestNewModel_Defaults(t *testing.T) {
	m := NewModel(view.New())

	assert.NotNil(t, m.history)
	assert.False(t, m.refreshing())
	assert.Equal(t, 70.0, m.thresholds.CPU.Warning)
	assert.Equal(t, 90.0, m.thresholds.Memory.Critical)
	assert.False(t, m.Quitting())
	assert.NotNil(t, m.Init())
}

func TestModel_WindowSize(t *testing.T) {
	m, _ := newTestModel(t)
	update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	w, h := m.size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 40, h)
	assert.Equal(t, 92, m.filter.Width)
}

func TestModel_SizeDefaultsBeforeResize(t *testing.T) {
	m := NewModel(view.New())
	w, h := m.size()
	assert.Equal(t, defaultWidth, w)
	assert.Equal(t, defaultHeight, h)
}

func TestModel_CycleRecordsHistoryOncePerSnapshot(t *testing.T) {
	m, state := newTestModel(t)

	update(t, m, scheduler.Cycle{ID: 1})
	key := state.Frame().Hosts[0].Key()
	assert.Equal(t, 1, m.history.Count(key))

	// Same snapshot again: nothing new.
	update(t, m, scheduler.Cycle{ID: 2})
	update(t, m, tickMsg(time.Now()))
	assert.Equal(t, 1, m.history.Count(key))

	state.ApplyRefresh(testSnapshot(), nil)
	update(t, m, tickMsg(time.Now()))
	assert.Equal(t, 2, m.history.Count(key))
}

func TestModel_CycleClearsNotice(t *testing.T) {
	m, _ := newTestModel(t)
	m.notice = "refresh already in progress"

	update(t, m, scheduler.Cycle{ID: 3})
	assert.Empty(t, m.notice)
}

func TestModel_TickReschedules(t *testing.T) {
	m, _ := newTestModel(t)
	assert.NotNil(t, update(t, m, tickMsg(time.Now())))
}

func TestModel_ViewWhenQuitting(t *testing.T) {
	m, _ := newTestModel(t)
	m.quitting = true
	assert.Empty(t, m.View())
}

func TestRefreshingFunc(t *testing.T) {
	current := scheduler.Idle
	fn := RefreshingFunc(func() scheduler.State { return current })

	assert.False(t, fn())
	current = scheduler.Refreshing
	assert.True(t, fn())
	current = scheduler.Cooldown
	assert.False(t, fn())
}
