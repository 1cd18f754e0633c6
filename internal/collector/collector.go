// Package collector polls every registered data source concurrently and
// merges the results into one inventory.Snapshot per refresh cycle.
package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/source"
	"go.uber.org/multierr"
)

// DefaultTimeout bounds each fetch call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Collector gathers hosts and workloads from a fixed set of sources.
type Collector struct {
	sources []source.DataSource
	timeout time.Duration
	log     logger.Logger
	now     func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithTimeout sets the per-call fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// New creates a collector over sources. Their order is the merge order.
func New(sources []source.DataSource, opts ...Option) *Collector {
	c := &Collector{
		sources: append([]source.DataSource(nil), sources...),
		timeout: DefaultTimeout,
		log:     logger.Noop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-call fetch timeout.
func (c *Collector) Timeout() time.Duration {
	return c.timeout
}

// Names returns the source names in registration order.
func (c *Collector) Names() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// outcome is one source's contribution to a cycle.
type outcome struct {
	hosts     []inventory.Host
	workloads []inventory.Workload
	err       error
	duration  time.Duration
}

// Collect fetches from every source in parallel. Sources that fail
// contribute nothing but are listed in Snapshot.Sources with their error.
// When every source fails, Collect returns a nil snapshot and an
// ALL_SOURCES_FAILED error instead.
func (c *Collector) Collect(ctx context.Context) (*inventory.Snapshot, error) {
	outcomes := make([]outcome, len(c.sources))

	var wg sync.WaitGroup
	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, src source.DataSource) {
			defer wg.Done()
			outcomes[i] = c.fetchSource(ctx, src)
		}(i, src)
	}
	wg.Wait()

	snap := &inventory.Snapshot{
		ID:      uuid.New(),
		Taken:   c.now(),
		Sources: make([]inventory.SourceStatus, len(c.sources)),
	}

	var failed []string
	var causes error
	for i, src := range c.sources {
		o := outcomes[i]
		status := inventory.SourceStatus{Name: src.Name(), Err: o.err, Duration: o.duration}
		if o.err != nil {
			failed = append(failed, src.Name())
			causes = multierr.Append(causes, o.err)
			c.log.Warn("source %s failed after %s: %s", src.Name(), o.duration.Round(time.Millisecond), errors.Message(o.err))
		} else {
			status.Hosts = len(o.hosts)
			status.Workloads = len(o.workloads)
			snap.Hosts = append(snap.Hosts, o.hosts...)
			snap.Workloads = append(snap.Workloads, o.workloads...)
		}
		snap.Sources[i] = status
	}

	if len(failed) == len(c.sources) {
		msg := "No data sources registered"
		if len(failed) > 0 {
			msg = "All sources failed: " + strings.Join(failed, ", ")
		}
		return nil, errors.WrapWithCode(causes, errors.ErrAllSourcesFailed, msg,
			"Check that the backends are reachable. pulse will keep retrying.")
	}
	return snap, nil
}

// fetchSource runs both calls for src concurrently. The source fails when
// either call fails.
func (c *Collector) fetchSource(ctx context.Context, src source.DataSource) outcome {
	start := c.now()
	name := src.Name()

	var o outcome
	var hostErr, workloadErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.hosts, hostErr = call(ctx, c.timeout, name, src.FetchHosts)
	}()
	go func() {
		defer wg.Done()
		o.workloads, workloadErr = call(ctx, c.timeout, name, src.FetchWorkloads)
	}()
	wg.Wait()

	o.duration = c.now().Sub(start)
	if hostErr != nil || workloadErr != nil {
		o.hosts, o.workloads = nil, nil
		o.err = firstErr(hostErr, workloadErr)
		return o
	}

	for i := range o.hosts {
		o.hosts[i].Source = name
	}
	for i := range o.workloads {
		o.workloads[i].Source = name
	}
	return o
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// call runs fn under its own deadline. A call that outlives the deadline
// is abandoned; its goroutine finishes in the background and its result is
// discarded. Panics are recovered and reported as protocol errors.
func call[T any](ctx context.Context, timeout time.Duration, name string, fn func(context.Context) ([]T, error)) ([]T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		items []T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: source.Protocol(name, fmt.Errorf("panic: %v", r), "source panicked")}
			}
		}()
		items, err := fn(callCtx)
		done <- result{items: items, err: err}
	}()

	select {
	case r := <-done:
		return r.items, source.Classify(name, r.err)
	case <-callCtx.Done():
		select {
		case r := <-done:
			return r.items, source.Classify(name, r.err)
		default:
		}
		return nil, source.Unavailable(name, callCtx.Err(), fmt.Sprintf("no response within %s", timeout))
	}
}
