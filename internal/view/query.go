package view

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rileyhilliard/pulse/internal/inventory"
)

// SortKey selects the column rows are ordered by.
type SortKey int

const (
	SortName SortKey = iota
	SortStatus
	SortCPU
	SortMemory
)

var sortKeyNames = [...]string{"name", "status", "cpu", "memory"}

func (k SortKey) String() string {
	if k < 0 || int(k) >= len(sortKeyNames) {
		return "name"
	}
	return sortKeyNames[k]
}

// Next returns the key after k, wrapping around.
func (k SortKey) Next() SortKey {
	return (k + 1) % SortKey(len(sortKeyNames))
}

// Direction is the sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Arrow is the glyph shown next to the sorted column.
func (d Direction) Arrow() string {
	if d == Descending {
		return "↓"
	}
	return "↑"
}

// Query is a pure filter and sort over a snapshot.
type Query struct {
	Filter string
	Key    SortKey
	Dir    Direction
}

// matches reports whether any field contains the filter, ignoring case.
func (q Query) matches(fields ...string) bool {
	if q.Filter == "" {
		return true
	}
	needle := strings.ToLower(q.Filter)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Hosts returns the snapshot's hosts whose name contains the filter,
// ordered by the query's key. Ties break by name, source, then id, always
// ascending.
func (q Query) Hosts(snap *inventory.Snapshot) []inventory.Host {
	if snap == nil {
		return nil
	}
	out := make([]inventory.Host, 0, len(snap.Hosts))
	for _, h := range snap.Hosts {
		if q.matches(h.Name) {
			out = append(out, h)
		}
	}

	slices.SortStableFunc(out, func(a, b inventory.Host) int {
		var c int
		switch q.Key {
		case SortName:
			c = compareNames(a.Name, b.Name)
		case SortStatus:
			c = cmp.Compare(hostRank(a.Status), hostRank(b.Status))
		case SortCPU:
			c = cmp.Compare(a.CPU, b.CPU)
		case SortMemory:
			c = cmp.Compare(a.MemUsed, b.MemUsed)
		}
		if q.Dir == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return tieBreak(a.Name, b.Name, a.Source, b.Source, a.Key().ID, b.Key().ID)
	})
	return out
}

// Workloads returns the snapshot's workloads whose name or host name
// contains the filter, ordered like Hosts.
func (q Query) Workloads(snap *inventory.Snapshot) []inventory.Workload {
	if snap == nil {
		return nil
	}
	out := make([]inventory.Workload, 0, len(snap.Workloads))
	for _, w := range snap.Workloads {
		if q.matches(w.Name, w.Host) {
			out = append(out, w)
		}
	}

	slices.SortStableFunc(out, func(a, b inventory.Workload) int {
		var c int
		switch q.Key {
		case SortName:
			c = compareNames(a.Name, b.Name)
		case SortStatus:
			c = cmp.Compare(stateRank(a.State), stateRank(b.State))
		case SortCPU:
			c = cmp.Compare(a.CPU, b.CPU)
		case SortMemory:
			c = cmp.Compare(a.MemUsed, b.MemUsed)
		}
		if q.Dir == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = tieBreak(a.Name, b.Name, a.Source, b.Source, "", ""); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// compareNames orders case-insensitively, then by exact bytes so the
// result is total.
func compareNames(a, b string) int {
	if c := cmp.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

func tieBreak(nameA, nameB, srcA, srcB, idA, idB string) int {
	if c := compareNames(nameA, nameB); c != 0 {
		return c
	}
	if c := cmp.Compare(srcA, srcB); c != 0 {
		return c
	}
	return cmp.Compare(idA, idB)
}

func hostRank(s inventory.HostStatus) int {
	if s == inventory.HostOnline {
		return 0
	}
	return 2
}

func stateRank(s inventory.RunState) int {
	switch s {
	case inventory.StateRunning:
		return 0
	case inventory.StateTransitional:
		return 1
	default:
		return 2
	}
}
