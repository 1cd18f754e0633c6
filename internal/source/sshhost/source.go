// Package sshhost implements a DataSource for plain Linux machines polled
// over SSH. It reports hosts only; these machines run no managed workloads.
package sshhost

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/source"
	"github.com/rileyhilliard/pulse/pkg/sshutil"
	"go.uber.org/multierr"
)

// Source polls a group of SSH targets.
type Source struct {
	name  string
	hosts []string
	pool  *Pool
	log   logger.Logger

	// targetTimeout caps a single target's probe. Zero leaves only the
	// share of the caller's deadline.
	targetTimeout time.Duration

	mu   sync.Mutex
	prev map[string]cpuSample
}

// New builds a Source that dials with sshutil using cfg's settings.
func New(cfg config.SSHConfig, log logger.Logger) *Source {
	opts := sshutil.DialOptions{
		Timeout:               cfg.ConnectTimeout,
		InsecureIgnoreHostKey: cfg.InsecureIgnoreHostKey,
	}
	dial := func(host string) (sshutil.SSHClient, error) {
		return sshutil.Dial(host, opts)
	}
	return NewWithDialer(cfg.Name, cfg.Hosts, dial, log, WithTargetTimeout(cfg.ConnectTimeout))
}

// Option configures a Source.
type Option func(*Source)

// WithTargetTimeout caps how long one target may take to connect and answer.
func WithTargetTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.targetTimeout = d
	}
}

// NewWithDialer builds a Source with a custom dialer.
func NewWithDialer(name string, hosts []string, dial DialFunc, log logger.Logger, opts ...Option) *Source {
	if log == nil {
		log = logger.Noop()
	}
	s := &Source{
		name:  name,
		hosts: append([]string(nil), hosts...),
		pool:  NewPool(dial),
		log:   log,
		prev:  make(map[string]cpuSample),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Name() string {
	return s.name
}

// Close closes pooled connections.
func (s *Source) Close() error {
	return s.pool.Close()
}

// FetchHosts probes every target in parallel. Unreachable or stalled
// targets are reported offline; the call fails only when no target answered.
func (s *Source) FetchHosts(ctx context.Context) ([]inventory.Host, error) {
	hosts := make([]inventory.Host, len(s.hosts))
	errs := make([]error, len(s.hosts))

	var wg sync.WaitGroup
	for i, target := range s.hosts {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			tctx, cancel := s.targetContext(ctx)
			defer cancel()
			h, err := s.probe(tctx, target)
			if err != nil {
				s.log.Warn("ssh %s: %s unreachable: %v", s.name, target, err)
				h = inventory.Host{Source: s.name, Name: target, Status: inventory.HostOffline}
			}
			hosts[i] = h
			errs[i] = err
		}(i, target)
	}
	wg.Wait()

	var combined error
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			combined = multierr.Append(combined, err)
		}
	}
	if len(s.hosts) > 0 && failed == len(s.hosts) {
		return nil, source.Unavailable(s.name, combined, "no host answered")
	}
	return hosts, nil
}

// targetContext bounds one probe by the target timeout and by half of
// what remains of ctx's deadline, so a stalled target gives up while the
// answers from the others can still be returned.
func (s *Source) targetContext(ctx context.Context) (context.Context, context.CancelFunc) {
	limit := s.targetTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if half := time.Until(deadline) / 2; limit <= 0 || half < limit {
			limit = half
		}
	}
	if limit <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, limit)
}

// FetchWorkloads always returns an empty list.
func (s *Source) FetchWorkloads(ctx context.Context) ([]inventory.Workload, error) {
	return nil, ctx.Err()
}

func (s *Source) probe(ctx context.Context, target string) (inventory.Host, error) {
	client, err := s.pool.Get(ctx, target)
	if err != nil {
		return inventory.Host{}, err
	}

	stdout, stderr, code, err := client.ExecContext(ctx, probeCommand)
	if err != nil {
		s.pool.Drop(target)
		return inventory.Host{}, err
	}
	if code != 0 {
		return inventory.Host{}, fmt.Errorf("probe exited %d: %s", code, strings.TrimSpace(string(stderr)))
	}

	stat, meminfo, uptime, err := splitProbe(string(stdout))
	if err != nil {
		return inventory.Host{}, err
	}
	sample, err := parseCPU(stat)
	if err != nil {
		return inventory.Host{}, err
	}
	used, total, err := parseMemory(meminfo)
	if err != nil {
		return inventory.Host{}, err
	}
	secs, err := parseUptime(uptime)
	if err != nil {
		return inventory.Host{}, err
	}

	s.mu.Lock()
	prev, havePrev := s.prev[target]
	s.prev[target] = sample
	s.mu.Unlock()

	return inventory.Host{
		Source:   s.name,
		Name:     target,
		Status:   inventory.HostOnline,
		CPU:      inventory.ClampPercent(sample.busyPercent(prev, havePrev)),
		MemUsed:  used,
		MemTotal: total,
		Uptime:   secs,
	}, nil
}
