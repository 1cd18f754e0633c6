package inventory

import (
	"time"

	"github.com/google/uuid"
)

// SourceStatus records how one data source fared in a refresh cycle.
type SourceStatus struct {
	Name      string
	Err       error // nil on success
	Duration  time.Duration
	Hosts     int
	Workloads int
}

// OK reports whether the source contributed data.
func (s SourceStatus) OK() bool {
	return s.Err == nil
}

// Snapshot is one fully merged refresh result. Build it once, never mutate it.
type Snapshot struct {
	ID        uuid.UUID
	Taken     time.Time
	Hosts     []Host
	Workloads []Workload
	// Sources is in registration order.
	Sources []SourceStatus
}

// Summary is the headline counts shown in the dashboard header.
type Summary struct {
	HostsOnline      int
	HostsTotal       int
	WorkloadsRunning int
	WorkloadsTotal   int
}

// Failed returns the names of sources that failed this cycle, in
// registration order.
func (s *Snapshot) Failed() []string {
	if s == nil {
		return nil
	}
	var names []string
	for _, src := range s.Sources {
		if !src.OK() {
			names = append(names, src.Name)
		}
	}
	return names
}

// Source returns the status entry for the named source.
func (s *Snapshot) Source(name string) (SourceStatus, bool) {
	if s == nil {
		return SourceStatus{}, false
	}
	for _, src := range s.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return SourceStatus{}, false
}

// HasHost reports whether the snapshot contains the given host.
func (s *Snapshot) HasHost(source, name string) bool {
	if s == nil {
		return false
	}
	for _, h := range s.Hosts {
		if h.Source == source && h.Name == name {
			return true
		}
	}
	return false
}

// HostLabel is the owning-host text for a workload. A workload whose host is
// missing from the snapshot is still shown, with the host marked unknown.
func (s *Snapshot) HostLabel(w Workload) string {
	if w.Host == "" {
		return "host unknown"
	}
	if !s.HasHost(w.Source, w.Host) {
		return w.Host + " (unknown)"
	}
	return w.Host
}

// Summary counts online hosts and running workloads.
func (s *Snapshot) Summary() Summary {
	var sum Summary
	if s == nil {
		return sum
	}
	sum.HostsTotal = len(s.Hosts)
	for _, h := range s.Hosts {
		if h.Online() {
			sum.HostsOnline++
		}
	}
	sum.WorkloadsTotal = len(s.Workloads)
	for _, w := range s.Workloads {
		if w.Running() {
			sum.WorkloadsRunning++
		}
	}
	return sum
}
