package view

import (
	"time"

	"github.com/rileyhilliard/pulse/internal/inventory"
)

// NoSelection is the cursor value of an empty panel.
const NoSelection = -1

// Mode is the keyboard input mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
)

// Panel identifies one of the two lists.
type Panel int

const (
	PanelHosts Panel = iota
	PanelWorkloads
)

func (p Panel) String() string {
	if p == PanelWorkloads {
		return "workloads"
	}
	return "hosts"
}

// Frame is an immutable picture of everything the dashboard draws.
// A Frame returned by State.Frame is never modified; mutations publish a
// new one.
type Frame struct {
	Snapshot *inventory.Snapshot

	Sort   SortKey
	Dir    Direction
	Filter string
	Mode   Mode
	Panel  Panel

	HostCursor     int
	WorkloadCursor int

	// Hosts and Workloads are the snapshot filtered and sorted by Query().
	Hosts     []inventory.Host
	Workloads []inventory.Workload

	// ErrorSummary is empty after a fully successful refresh.
	ErrorSummary string
	// LastRefresh is when the shown snapshot was taken. Zero before the first.
	LastRefresh time.Time
	// LastAttempt is when the most recent refresh finished, successful or not.
	LastAttempt time.Time
}

// Query returns the filter and sort the frame's lists were built with.
func (f *Frame) Query() Query {
	return Query{Filter: f.Filter, Key: f.Sort, Dir: f.Dir}
}

// Cursor returns the active panel's cursor.
func (f *Frame) Cursor() int {
	if f.Panel == PanelWorkloads {
		return f.WorkloadCursor
	}
	return f.HostCursor
}

// Len returns the number of rows in the active panel.
func (f *Frame) Len() int {
	if f.Panel == PanelWorkloads {
		return len(f.Workloads)
	}
	return len(f.Hosts)
}

// SelectedHost returns the host under the hosts cursor.
func (f *Frame) SelectedHost() (inventory.Host, bool) {
	if f.HostCursor < 0 || f.HostCursor >= len(f.Hosts) {
		return inventory.Host{}, false
	}
	return f.Hosts[f.HostCursor], true
}

// SelectedWorkload returns the workload under the workloads cursor.
func (f *Frame) SelectedWorkload() (inventory.Workload, bool) {
	if f.WorkloadCursor < 0 || f.WorkloadCursor >= len(f.Workloads) {
		return inventory.Workload{}, false
	}
	return f.Workloads[f.WorkloadCursor], true
}

// Refreshed reports whether any snapshot has been applied yet.
func (f *Frame) Refreshed() bool {
	return f.Snapshot != nil
}

func (f *Frame) selectedKeys() (host, workload *inventory.Key) {
	if h, ok := f.SelectedHost(); ok {
		k := h.Key()
		host = &k
	}
	if w, ok := f.SelectedWorkload(); ok {
		k := w.Key()
		workload = &k
	}
	return host, workload
}
