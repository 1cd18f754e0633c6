// Package local implements a DataSource for the machine pulse runs on.
package local

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/source"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// probes reads the local metrics. Replaced in tests.
type probes struct {
	cpuPercent func(ctx context.Context) (float64, error)
	memory     func(ctx context.Context) (used, total uint64, err error)
	uptime     func(ctx context.Context) (uint64, error)
	hostname   func(ctx context.Context) (string, error)
}

func systemProbes() probes {
	return probes{
		// A zero interval compares against the previous call, so only the
		// first refresh reports the average since boot.
		cpuPercent: func(ctx context.Context) (float64, error) {
			pct, err := cpu.PercentWithContext(ctx, 0, false)
			if err != nil {
				return 0, err
			}
			if len(pct) == 0 {
				return 0, fmt.Errorf("no cpu data")
			}
			return pct[0], nil
		},
		memory: func(ctx context.Context) (uint64, uint64, error) {
			v, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return 0, 0, err
			}
			return v.Used, v.Total, nil
		},
		uptime: host.UptimeWithContext,
		hostname: func(ctx context.Context) (string, error) {
			info, err := host.InfoWithContext(ctx)
			if err != nil {
				return "", err
			}
			return info.Hostname, nil
		},
	}
}

// Source reports the local machine as a single host.
type Source struct {
	name  string
	probe probes
}

// New builds the local source.
func New(cfg config.LocalConfig) *Source {
	return &Source{name: cfg.Name, probe: systemProbes()}
}

func (s *Source) Name() string {
	return s.name
}

// FetchHosts returns exactly one online host named after the machine.
func (s *Source) FetchHosts(ctx context.Context) ([]inventory.Host, error) {
	name, err := s.probe.hostname(ctx)
	if err != nil {
		return nil, source.Protocol(s.name, err, "reading hostname")
	}
	if name == "" {
		name = s.name
	}

	pct, err := s.probe.cpuPercent(ctx)
	if err != nil {
		return nil, source.Protocol(s.name, err, "reading cpu usage")
	}
	used, total, err := s.probe.memory(ctx)
	if err != nil {
		return nil, source.Protocol(s.name, err, "reading memory usage")
	}
	up, err := s.probe.uptime(ctx)
	if err != nil {
		return nil, source.Protocol(s.name, err, "reading uptime")
	}

	return []inventory.Host{{
		Source:   s.name,
		Name:     name,
		Status:   inventory.HostOnline,
		CPU:      inventory.ClampPercent(pct),
		MemUsed:  used,
		MemTotal: total,
		Uptime:   up,
	}}, nil
}

// FetchWorkloads always returns an empty list.
func (s *Source) FetchWorkloads(ctx context.Context) ([]inventory.Workload, error) {
	return nil, ctx.Err()
}
