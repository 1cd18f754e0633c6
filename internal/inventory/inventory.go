// Package inventory holds the entity model shared by data sources, the
// collector, and the view: hosts, workloads, and the snapshots that group them.
//
// Values in this package are treated as immutable once a Snapshot has been
// built. Nothing downstream of the collector mutates a Host or Workload in
// place; the next refresh produces a new Snapshot instead.
package inventory

import (
	"fmt"
	"strconv"
)

// HostStatus is the reachability of a host as reported by its source.
type HostStatus int

const (
	HostOffline HostStatus = iota
	HostOnline
)

func (s HostStatus) String() string {
	if s == HostOnline {
		return "online"
	}
	return "offline"
}

// WorkloadKind distinguishes full virtual machines from containers.
type WorkloadKind int

const (
	KindMachine WorkloadKind = iota
	KindContainer
)

func (k WorkloadKind) String() string {
	if k == KindContainer {
		return "container"
	}
	return "vm"
}

// RunState is the lifecycle state of a workload.
type RunState int

const (
	StateStopped RunState = iota
	StateRunning
	// StateTransitional covers anything between running and stopped
	// (paused, suspended, migrating...).
	StateTransitional
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTransitional:
		return "transitional"
	default:
		return "stopped"
	}
}

// ParseRunState maps a backend state word to a RunState.
func ParseRunState(raw string) RunState {
	switch raw {
	case "running":
		return StateRunning
	case "stopped":
		return StateStopped
	default:
		return StateTransitional
	}
}

// Key identifies an entity across refreshes. Identifiers are only unique
// within a source, so the source name is part of the key.
type Key struct {
	Source string
	ID     string
}

func (k Key) String() string {
	return k.Source + "/" + k.ID
}

// Host is a physical or virtual compute node.
type Host struct {
	Source   string
	Name     string
	Status   HostStatus
	CPU      float64 // percent, 0-100
	MemUsed  uint64
	MemTotal uint64 // 0 when unknown
	Uptime   uint64 // seconds, 0 when offline
}

// Key returns the host's stable identity.
func (h Host) Key() Key {
	return Key{Source: h.Source, ID: h.Name}
}

// Online reports whether the host is reachable.
func (h Host) Online() bool {
	return h.Status == HostOnline
}

// MemoryPercent returns used/total as a percentage. ok is false when the
// total is unknown.
func (h Host) MemoryPercent() (pct float64, ok bool) {
	return memoryPercent(h.MemUsed, h.MemTotal)
}

// Workload is a virtual machine or container running on a host.
type Workload struct {
	Source   string
	ID       uint64
	Name     string
	Host     string // owning host name within the same source
	Kind     WorkloadKind
	State    RunState
	RawState string // backend's own word for State, shown when transitional
	CPU      float64
	MemUsed  uint64
	MemMax   uint64
	Uptime   uint64
}

// Key returns the workload's stable identity.
func (w Workload) Key() Key {
	return Key{Source: w.Source, ID: strconv.FormatUint(w.ID, 10)}
}

// Running reports whether the workload is running.
func (w Workload) Running() bool {
	return w.State == StateRunning
}

// MemoryPercent returns used/max as a percentage. ok is false when the
// maximum is unknown.
func (w Workload) MemoryPercent() (pct float64, ok bool) {
	return memoryPercent(w.MemUsed, w.MemMax)
}

// StateLabel is the text shown for the workload's state.
func (w Workload) StateLabel() string {
	if w.State == StateTransitional && w.RawState != "" {
		return w.RawState
	}
	return w.State.String()
}

// DefaultWorkloadName is used when a backend omits a workload's name.
func DefaultWorkloadName(kind WorkloadKind, id uint64) string {
	if kind == KindContainer {
		return fmt.Sprintf("CT %d", id)
	}
	return fmt.Sprintf("VM %d", id)
}

func memoryPercent(used, total uint64) (float64, bool) {
	if total == 0 {
		return 0, false
	}
	return float64(used) / float64(total) * 100, true
}
