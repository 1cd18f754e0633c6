// Package view holds the dashboard's view state: the latest snapshot plus
// filter, sort, mode, and per-panel selection.
//
// There is a single writer discipline. Every mutation copies the current
// Frame, changes the copy, rebuilds the filtered lists, re-clamps the
// cursors and publishes the result with one atomic pointer swap. Writers
// are serialized by a mutex; readers call Frame and never block.
package view

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/inventory"
)

// State is the shared view state.
type State struct {
	mu      sync.Mutex
	frame   atomic.Pointer[Frame]
	trigger atomic.Pointer[func() bool]
	now     func() time.Time
}

// New returns a State with no snapshot, sorted by name ascending.
func New() *State {
	s := &State{now: time.Now}
	s.frame.Store(&Frame{
		HostCursor:     NoSelection,
		WorkloadCursor: NoSelection,
	})
	return s
}

// Frame returns the current frame. Safe from any goroutine.
func (s *State) Frame() *Frame {
	return s.frame.Load()
}

// SetTrigger sets the function RequestRefresh forwards to, normally the
// scheduler's TriggerRefresh.
func (s *State) SetTrigger(fn func() bool) {
	s.trigger.Store(&fn)
}

// RequestRefresh asks for a manual refresh and reports whether it was
// accepted. Without a trigger it is always refused.
func (s *State) RequestRefresh() bool {
	fn := s.trigger.Load()
	if fn == nil || *fn == nil {
		return false
	}
	return (*fn)()
}

// reselect controls how cursors are fixed up after a mutation.
type reselect int

const (
	// followKey keeps the previously selected entity selected.
	followKey reselect = iota
	// keepIndex trusts the cursor the mutation set and only clamps it.
	keepIndex
)

func (s *State) update(how reselect, mutate func(f *Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.frame.Load()
	next := *prev
	mutate(&next)

	q := next.Query()
	next.Hosts = q.Hosts(next.Snapshot)
	next.Workloads = q.Workloads(next.Snapshot)

	if how == followKey {
		hostKey, workloadKey := prev.selectedKeys()
		next.HostCursor = reclamp(hostKey, prev.HostCursor, len(next.Hosts), func(i int) inventory.Key {
			return next.Hosts[i].Key()
		})
		next.WorkloadCursor = reclamp(workloadKey, prev.WorkloadCursor, len(next.Workloads), func(i int) inventory.Key {
			return next.Workloads[i].Key()
		})
	} else {
		next.HostCursor = clamp(next.HostCursor, len(next.Hosts))
		next.WorkloadCursor = clamp(next.WorkloadCursor, len(next.Workloads))
	}

	s.frame.Store(&next)
}

// reclamp finds the previously selected key in the new sequence. If it is
// gone the cursor stays at the same position, clamped to the new length.
func reclamp(key *inventory.Key, oldIdx, n int, keyAt func(int) inventory.Key) int {
	if n == 0 {
		return NoSelection
	}
	if key != nil {
		for i := 0; i < n; i++ {
			if keyAt(i) == *key {
				return i
			}
		}
	}
	return clamp(oldIdx, n)
}

func clamp(idx, n int) int {
	switch {
	case n == 0:
		return NoSelection
	case idx < 0:
		return 0
	case idx >= n:
		return n - 1
	default:
		return idx
	}
}

// ApplyRefresh folds a collector result into the state. A nil snapshot
// with an error means every source failed: the old snapshot stays and
// only the error summary and attempt time change.
func (s *State) ApplyRefresh(snap *inventory.Snapshot, err error) {
	if snap == nil {
		if err == nil {
			return
		}
		now := s.now()
		s.update(followKey, func(f *Frame) {
			f.ErrorSummary = errors.Message(err)
			f.LastAttempt = now
		})
		return
	}

	s.update(followKey, func(f *Frame) {
		f.Snapshot = snap
		f.ErrorSummary = ""
		if failed := snap.Failed(); len(failed) > 0 {
			f.ErrorSummary = "refresh failed: " + strings.Join(failed, ", ")
		}
		f.LastRefresh = snap.Taken
		f.LastAttempt = snap.Taken
	})
}

// MoveSelection moves the active panel's cursor by delta, stopping at
// either end.
func (s *State) MoveSelection(delta int) {
	s.update(keepIndex, func(f *Frame) {
		if f.Panel == PanelWorkloads {
			f.WorkloadCursor = moved(f.WorkloadCursor, delta)
		} else {
			f.HostCursor = moved(f.HostCursor, delta)
		}
	})
}

func moved(cursor, delta int) int {
	if cursor == NoSelection {
		return 0
	}
	return cursor + delta
}

// SelectFirst moves the active panel's cursor to the first row.
func (s *State) SelectFirst() {
	s.update(keepIndex, func(f *Frame) {
		if f.Panel == PanelWorkloads {
			f.WorkloadCursor = 0
		} else {
			f.HostCursor = 0
		}
	})
}

// SelectLast moves the active panel's cursor to the last row.
func (s *State) SelectLast() {
	s.update(keepIndex, func(f *Frame) {
		if f.Panel == PanelWorkloads {
			f.WorkloadCursor = len(f.Workloads) - 1
		} else {
			f.HostCursor = len(f.Hosts) - 1
		}
	})
}

// CycleSort advances to the next sort key.
func (s *State) CycleSort() {
	s.update(followKey, func(f *Frame) { f.Sort = f.Sort.Next() })
}

// ToggleDirection flips the sort direction.
func (s *State) ToggleDirection() {
	s.update(followKey, func(f *Frame) {
		if f.Dir == Ascending {
			f.Dir = Descending
		} else {
			f.Dir = Ascending
		}
	})
}

// SetFilter replaces the filter text.
func (s *State) SetFilter(text string) {
	s.update(followKey, func(f *Frame) { f.Filter = text })
}

// ClearFilter removes the filter and returns to normal mode.
func (s *State) ClearFilter() {
	s.update(followKey, func(f *Frame) {
		f.Filter = ""
		f.Mode = ModeNormal
	})
}

// EnterFilterMode switches keyboard input to the filter box.
func (s *State) EnterFilterMode() {
	s.update(followKey, func(f *Frame) { f.Mode = ModeFilter })
}

// ExitFilterMode returns to normal mode, keeping the filter.
func (s *State) ExitFilterMode() {
	s.update(followKey, func(f *Frame) { f.Mode = ModeNormal })
}

// SwitchPanel toggles between the hosts and workloads panels.
func (s *State) SwitchPanel() {
	s.update(followKey, func(f *Frame) {
		if f.Panel == PanelHosts {
			f.Panel = PanelWorkloads
		} else {
			f.Panel = PanelHosts
		}
	})
}
