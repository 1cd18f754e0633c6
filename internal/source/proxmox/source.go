// Package proxmox implements a DataSource backed by the Proxmox VE HTTP API,
// authenticating with an API token.
package proxmox

import (
	"context"
	"net/url"
	"sync"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/logger"
)

// Source polls one Proxmox cluster or standalone node.
type Source struct {
	client *client
	log    logger.Logger
}

// New builds a Source from its config entry.
func New(cfg config.ProxmoxConfig, log logger.Logger) (*Source, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Source{client: c, log: log}, nil
}

func (s *Source) Name() string {
	return s.client.name
}

// Close drops idle connections.
func (s *Source) Close() error {
	s.client.close()
	return nil
}

func (s *Source) nodes(ctx context.Context) ([]nodeEntry, error) {
	return get[[]nodeEntry](ctx, s.client, "/nodes")
}

// FetchHosts lists cluster nodes. Online nodes get their status queried in
// parallel; a node whose status call fails is still listed, with zero metrics.
func (s *Source) FetchHosts(ctx context.Context) ([]inventory.Host, error) {
	nodes, err := s.nodes(ctx)
	if err != nil {
		return nil, err
	}

	hosts := make([]inventory.Host, len(nodes))
	var wg sync.WaitGroup
	for i, n := range nodes {
		hosts[i] = inventory.Host{
			Source: s.Name(),
			Name:   n.Node,
			Status: inventory.HostOffline,
		}
		if n.Status != "online" {
			continue
		}
		hosts[i].Status = inventory.HostOnline

		wg.Add(1)
		go func(h *inventory.Host) {
			defer wg.Done()
			st, err := get[nodeStatus](ctx, s.client, "/nodes/"+url.PathEscape(h.Name)+"/status")
			if err != nil {
				s.log.Warn("proxmox %s: node %s status unavailable: %v", s.Name(), h.Name, err)
				return
			}
			applyNodeStatus(h, st)
		}(&hosts[i])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hosts, nil
}

func applyNodeStatus(h *inventory.Host, st nodeStatus) {
	if st.CPU != nil {
		h.CPU = inventory.ClampPercent(*st.CPU * 100)
	}
	if st.Memory != nil {
		h.MemUsed = st.Memory.Used
		h.MemTotal = st.Memory.Total
		if h.MemTotal > 0 && h.MemUsed > h.MemTotal {
			h.MemUsed = h.MemTotal
		}
	}
	if st.Uptime != nil {
		h.Uptime = *st.Uptime
	}
}

// FetchWorkloads lists VMs and containers on every online node. A node whose
// listing fails is skipped.
func (s *Source) FetchWorkloads(ctx context.Context) ([]inventory.Workload, error) {
	nodes, err := s.nodes(ctx)
	if err != nil {
		return nil, err
	}

	type listing struct {
		node string
		kind inventory.WorkloadKind
		path string
	}
	var listings []listing
	for _, n := range nodes {
		if n.Status != "online" {
			continue
		}
		base := "/nodes/" + url.PathEscape(n.Node)
		listings = append(listings,
			listing{node: n.Node, kind: inventory.KindMachine, path: base + "/qemu"},
			listing{node: n.Node, kind: inventory.KindContainer, path: base + "/lxc"},
		)
	}

	results := make([][]inventory.Workload, len(listings))
	var wg sync.WaitGroup
	for i, l := range listings {
		wg.Add(1)
		go func(i int, l listing) {
			defer wg.Done()
			guests, err := get[[]guestEntry](ctx, s.client, l.path)
			if err != nil {
				s.log.Warn("proxmox %s: listing %s failed: %v", s.Name(), l.path, err)
				return
			}
			out := make([]inventory.Workload, 0, len(guests))
			for _, g := range guests {
				out = append(out, toWorkload(s.Name(), l.node, l.kind, g))
			}
			results[i] = out
		}(i, l)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var workloads []inventory.Workload
	for _, r := range results {
		workloads = append(workloads, r...)
	}
	return workloads, nil
}

func toWorkload(sourceName, node string, kind inventory.WorkloadKind, g guestEntry) inventory.Workload {
	id := uint64(g.VMID)
	name := g.Name
	if name == "" {
		name = inventory.DefaultWorkloadName(kind, id)
	}
	state := inventory.ParseRunState(g.Status)

	w := inventory.Workload{
		Source:   sourceName,
		ID:       id,
		Name:     name,
		Host:     node,
		Kind:     kind,
		State:    state,
		RawState: g.Status,
		CPU:      inventory.ClampPercent(g.CPU * 100),
		MemUsed:  uint64(g.Mem),
		MemMax:   uint64(g.MaxMem),
	}
	if state == inventory.StateRunning {
		w.Uptime = uint64(g.Uptime)
	}
	return w
}
