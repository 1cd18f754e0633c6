// Package testing provides a scriptable DataSource for collector,
// scheduler, and view tests.
package testing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/source"
)

// FakeSource returns whatever it was last told to. Records are stamped
// with the fake's name before being returned.
type FakeSource struct {
	name string

	mu          sync.Mutex
	hosts       []inventory.Host
	workloads   []inventory.Workload
	hostErr     error
	workloadErr error
	delay       time.Duration
	block       chan struct{}
	ignoreCtx   bool
	panicMsg    string

	hostCalls     atomic.Int32
	workloadCalls atomic.Int32
	inFlight      atomic.Int32
	maxInFlight   atomic.Int32
}

var _ source.DataSource = (*FakeSource)(nil)

// NewFakeSource creates a fake that returns nothing.
func NewFakeSource(name string) *FakeSource {
	return &FakeSource{name: name}
}

func (f *FakeSource) Name() string { return f.name }

// SetHosts sets the hosts returned by FetchHosts.
func (f *FakeSource) SetHosts(hosts ...inventory.Host) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts = hosts
	return f
}

// SetWorkloads sets the workloads returned by FetchWorkloads.
func (f *FakeSource) SetWorkloads(workloads ...inventory.Workload) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workloads = workloads
	return f
}

// FailHosts makes FetchHosts return err. nil clears it.
func (f *FakeSource) FailHosts(err error) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hostErr = err
	return f
}

// FailWorkloads makes FetchWorkloads return err. nil clears it.
func (f *FakeSource) FailWorkloads(err error) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workloadErr = err
	return f
}

// SetDelay makes every call wait d, or until ctx ends.
func (f *FakeSource) SetDelay(d time.Duration) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

// Block makes calls wait until Release. With IgnoreContext they also
// ignore cancellation while blocked.
func (f *FakeSource) Block() *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = make(chan struct{})
	return f
}

// Release unblocks calls held by Block.
func (f *FakeSource) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.block != nil {
		close(f.block)
		f.block = nil
	}
}

// IgnoreContext makes blocked calls disregard ctx, like a misbehaving backend.
func (f *FakeSource) IgnoreContext() *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ignoreCtx = true
	return f
}

// Panic makes every call panic with msg.
func (f *FakeSource) Panic(msg string) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panicMsg = msg
	return f
}

// HostCalls returns how many times FetchHosts was called.
func (f *FakeSource) HostCalls() int { return int(f.hostCalls.Load()) }

// WorkloadCalls returns how many times FetchWorkloads was called.
func (f *FakeSource) WorkloadCalls() int { return int(f.workloadCalls.Load()) }

// MaxInFlight returns the highest number of concurrent calls observed.
func (f *FakeSource) MaxInFlight() int { return int(f.maxInFlight.Load()) }

func (f *FakeSource) FetchHosts(ctx context.Context) ([]inventory.Host, error) {
	f.hostCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hostErr != nil {
		return nil, f.hostErr
	}
	out := make([]inventory.Host, len(f.hosts))
	for i, h := range f.hosts {
		h.Source = f.name
		out[i] = h
	}
	return out, nil
}

func (f *FakeSource) FetchWorkloads(ctx context.Context) ([]inventory.Workload, error) {
	f.workloadCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.workloadErr != nil {
		return nil, f.workloadErr
	}
	out := make([]inventory.Workload, len(f.workloads))
	for i, w := range f.workloads {
		w.Source = f.name
		out[i] = w
	}
	return out, nil
}

func (f *FakeSource) wait(ctx context.Context) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	delay, block, ignore, panicMsg := f.delay, f.block, f.ignoreCtx, f.panicMsg
	f.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}

	if block != nil {
		if ignore {
			<-block
		} else {
			select {
			case <-block:
			case <-ctx.Done():
				return source.Unavailable(f.name, ctx.Err(), "timed out")
			}
		}
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return source.Unavailable(f.name, ctx.Err(), "timed out")
		}
	}
	return nil
}
