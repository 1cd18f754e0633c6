// Package scheduler drives refresh cycles: one immediately, then one per
// interval, plus manual refreshes on request. At most one cycle runs at a
// time.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/logger"
)

// State is the scheduler's position in its cycle.
type State int32

const (
	Idle State = iota
	Refreshing
	Cooldown
)

func (s State) String() string {
	switch s {
	case Refreshing:
		return "refreshing"
	case Cooldown:
		return "cooldown"
	default:
		return "idle"
	}
}

// Collector produces one snapshot per call.
type Collector interface {
	Collect(ctx context.Context) (*inventory.Snapshot, error)
}

// Sink receives every cycle's outcome.
type Sink interface {
	ApplyRefresh(snap *inventory.Snapshot, err error)
}

// Cycle describes a finished refresh.
type Cycle struct {
	ID       uint64
	Manual   bool
	Started  time.Time
	Duration time.Duration
	Failed   []string // sources that failed, when some succeeded
	Err      error    // set when every source failed
}

// Scheduler runs refresh cycles against a Collector.
type Scheduler struct {
	collector Collector
	sink      Sink
	interval  time.Duration
	log       logger.Logger
	onCycle   func(Cycle)

	state   atomic.Int32
	cycles  atomic.Uint64
	pending atomic.Bool
	trigger chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithOnCycle registers fn to run after each cycle has been applied. It is
// called from the scheduler goroutine and must not block.
func WithOnCycle(fn func(Cycle)) Option {
	return func(s *Scheduler) { s.onCycle = fn }
}

// New creates a scheduler that refreshes every interval.
func New(c Collector, sink Sink, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		collector: c,
		sink:      sink,
		interval:  interval,
		log:       logger.Noop(),
		trigger:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state. Safe from any goroutine.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Cycles returns how many cycles have completed.
func (s *Scheduler) Cycles() uint64 {
	return s.cycles.Load()
}

// TriggerRefresh requests a refresh now. It is accepted only while idle
// and when no request is already pending; otherwise it does nothing and
// returns false.
func (s *Scheduler) TriggerRefresh() bool {
	if s.State() != Idle || !s.pending.CompareAndSwap(false, true) {
		return false
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
	return true
}

// Run refreshes immediately and then on every tick or trigger until ctx is
// cancelled. A cycle in progress at cancellation is finished and applied
// before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started, refreshing every %s", s.interval)
	s.runCycle(ctx, false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		manual := false
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped after %d cycles", s.Cycles())
			return
		case <-ticker.C:
		case <-s.trigger:
			manual = true
		}
		if ctx.Err() != nil {
			continue
		}

		s.runCycle(ctx, manual)
		ticker.Reset(s.interval)
	}
}

func (s *Scheduler) runCycle(ctx context.Context, manual bool) {
	s.state.Store(int32(Refreshing))

	started := time.Now()
	// Shutdown must not abort a cycle half way; each fetch carries its own
	// deadline.
	snap, err := s.collector.Collect(context.WithoutCancel(ctx))
	duration := time.Since(started)

	s.state.Store(int32(Cooldown))
	s.sink.ApplyRefresh(snap, err)

	c := Cycle{
		ID:       s.cycles.Add(1),
		Manual:   manual,
		Started:  started,
		Duration: duration,
		Failed:   snap.Failed(),
		Err:      err,
	}
	s.logCycle(c, snap)

	if s.onCycle != nil {
		s.onCycle(c)
	}

	// A request accepted just before a tick started this cycle is
	// satisfied by it.
	select {
	case <-s.trigger:
	default:
	}
	s.pending.Store(false)
	s.state.Store(int32(Idle))
}

func (s *Scheduler) logCycle(c Cycle, snap *inventory.Snapshot) {
	d := c.Duration.Round(time.Millisecond)
	switch {
	case c.Err != nil:
		s.log.Error("cycle %d failed in %s: %s", c.ID, d, errors.Message(c.Err))
	case snap == nil:
		s.log.Warn("cycle %d finished in %s without a snapshot", c.ID, d)
	case len(c.Failed) > 0:
		s.log.Warn("cycle %d (snapshot %s) finished in %s with %d hosts, %d workloads; failed sources: %v",
			c.ID, snap.ID, d, len(snap.Hosts), len(snap.Workloads), c.Failed)
	default:
		s.log.Info("cycle %d (snapshot %s) finished in %s with %d hosts, %d workloads",
			c.ID, snap.ID, d, len(snap.Hosts), len(snap.Workloads))
	}
}
