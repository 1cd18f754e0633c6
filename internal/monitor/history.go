package monitor

import (
	"sync"

	"github.com/rileyhilliard/pulse/internal/inventory"
)

// DefaultHistorySize is the number of CPU samples kept per entity.
const DefaultHistorySize = 60

// History keeps a short in-memory CPU trend per host and workload for the
// detail panel's sparkline. Nothing is persisted.
type History struct {
	mu      sync.RWMutex
	size    int
	entries map[inventory.Key]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history tracker with the given buffer size.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:    size,
		entries: make(map[inventory.Key]*ringBuffer),
	}
}

// Record pushes one sample for every entity in snap and forgets entities
// that are no longer present. Hosts and workloads live in separate key
// spaces, so workload keys are prefixed.
func (h *History) Record(snap *inventory.Snapshot) {
	if snap == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[inventory.Key]struct{}, len(snap.Hosts)+len(snap.Workloads))
	for _, host := range snap.Hosts {
		k := hostKey(host)
		seen[k] = struct{}{}
		h.pushLocked(k, host.CPU)
	}
	for _, w := range snap.Workloads {
		k := workloadKey(w)
		seen[k] = struct{}{}
		h.pushLocked(k, w.CPU)
	}

	for k := range h.entries {
		if _, ok := seen[k]; !ok {
			delete(h.entries, k)
		}
	}
}

// Push adds one sample for key.
func (h *History) Push(key inventory.Key, value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushLocked(key, value)
}

func (h *History) pushLocked(key inventory.Key, value float64) {
	buf, ok := h.entries[key]
	if !ok {
		buf = newRingBuffer(h.size)
		h.entries[key] = buf
	}
	buf.push(value)
}

// Get returns up to count most recent samples for key, oldest first.
func (h *History) Get(key inventory.Key, count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.entries[key]
	if !ok {
		return nil
	}
	return buf.getLast(count)
}

// Count returns the number of samples stored for key.
func (h *History) Count(key inventory.Key) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.entries[key]
	if !ok {
		return 0
	}
	return buf.count
}

// Len returns the number of tracked entities.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func hostKey(host inventory.Host) inventory.Key {
	return host.Key()
}

func workloadKey(w inventory.Workload) inventory.Key {
	k := w.Key()
	k.ID = "wl:" + k.ID
	return k
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)
	// head is the next write slot, so the newest value sits at head-1.
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}
