package sshhost

import (
	"context"
	"sync"

	"github.com/rileyhilliard/pulse/pkg/sshutil"
	"go.uber.org/multierr"
)

// DialFunc opens a connection to an SSH target.
type DialFunc func(host string) (sshutil.SSHClient, error)

// Pool keeps one connection per target open between refresh cycles.
type Pool struct {
	mu    sync.Mutex
	conns map[string]sshutil.SSHClient
	dial  DialFunc
}

// NewPool creates an empty pool that opens connections with dial.
func NewPool(dial DialFunc) *Pool {
	return &Pool{
		conns: make(map[string]sshutil.SSHClient),
		dial:  dial,
	}
}

// Get returns a live connection for host, dialing a new one if the cached
// connection stopped answering. If ctx ends while dialing, Get returns
// ctx.Err() and the connection, once established, is kept for next time.
func (p *Pool) Get(ctx context.Context, host string) (sshutil.SSHClient, error) {
	p.mu.Lock()
	client, ok := p.conns[host]
	p.mu.Unlock()

	if ok {
		if client.Alive() {
			return client, nil
		}
		p.Drop(host)
	}

	type result struct {
		client sshutil.SSHClient
		err    error
	}
	done := make(chan result, 1)
	go func() {
		c, err := p.dial(host)
		if err == nil {
			c = p.store(host, c)
		}
		done <- result{client: c, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.client, r.err
	}
}

// store caches c unless another dial for the same host won the race, in
// which case c is closed and the cached connection returned.
func (p *Pool) store(host string, c sshutil.SSHClient) sshutil.SSHClient {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.conns[host]; ok && existing.Alive() {
		_ = c.Close()
		return existing
	}
	p.conns[host] = c
	return c
}

// Drop closes and forgets the connection for host.
func (p *Pool) Drop(host string) {
	p.mu.Lock()
	client, ok := p.conns[host]
	delete(p.conns, host)
	p.mu.Unlock()

	if ok {
		_ = client.Close()
	}
}

// Size returns the number of cached connections.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Close closes every cached connection.
func (p *Pool) Close() error {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]sshutil.SSHClient)
	p.mu.Unlock()

	var err error
	for _, c := range conns {
		err = multierr.Append(err, c.Close())
	}
	return err
}
