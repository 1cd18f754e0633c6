package sshhost

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	perrors "github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/pkg/sshutil"
	sshtest "github.com/rileyhilliard/pulse/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeOutput(stat string) []byte {
	return []byte(stat + sectionMarker + "\n" + sampleMeminfo + sectionMarker + "\n" + "3600.50 7000.00\n")
}

func healthyClient(host string) *sshtest.MockClient {
	m := sshtest.NewMockClient(host)
	m.SetCommandResponse(probeCommand, sshtest.CommandResponse{Stdout: probeOutput(sampleStat)})
	return m
}

// fakeDialer hands out prepared clients and fails for unknown hosts.
type fakeDialer struct {
	clients map[string]*sshtest.MockClient
	dials   atomic.Int32
}

func (d *fakeDialer) dial(host string) (sshutil.SSHClient, error) {
	d.dials.Add(1)
	if c, ok := d.clients[host]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("dial tcp %s: connection refused", host)
}

func TestFetchHosts(t *testing.T) {
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{
		"nas": healthyClient("nas"),
	}}
	log := logger.NewBufferLogger()
	src := NewWithDialer("lab", []string{"nas", "pi"}, d.dial, log)

	hosts, err := src.FetchHosts(context.Background())
	require.NoError(t, err)
	require.Len(t, hosts, 2)

	nas := hosts[0]
	assert.Equal(t, "lab", nas.Source)
	assert.Equal(t, "nas", nas.Name)
	assert.Equal(t, inventory.HostOnline, nas.Status)
	assert.InDelta(t, 15.0, nas.CPU, 0.001)
	assert.Equal(t, uint64(8000000*1024), nas.MemTotal)
	assert.Equal(t, uint64(3600), nas.Uptime)

	pi := hosts[1]
	assert.Equal(t, "pi", pi.Name)
	assert.Equal(t, inventory.HostOffline, pi.Status)
	assert.Zero(t, pi.Uptime)
	assert.True(t, log.Contains("warn", "pi unreachable"))
}

func TestFetchHosts_CPUDelta(t *testing.T) {
	client := healthyClient("nas")
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"nas": client}}
	src := NewWithDialer("lab", []string{"nas"}, d.dial, nil)

	_, err := src.FetchHosts(context.Background())
	require.NoError(t, err)

	next := "cpu  1500 0 500 8500 500 0 0 0 0 0\n"
	client.SetCommandResponse(probeCommand, sshtest.CommandResponse{Stdout: probeOutput(next)})

	hosts, err := src.FetchHosts(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 50.0, hosts[0].CPU, 0.001)
	assert.Equal(t, int32(1), d.dials.Load(), "connection should be reused")
}

func TestFetchHosts_AllUnreachable(t *testing.T) {
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{}}
	src := NewWithDialer("lab", []string{"a", "b"}, d.dial, nil)

	hosts, err := src.FetchHosts(context.Background())
	assert.Nil(t, hosts)
	require.Error(t, err)
	assert.True(t, perrors.IsCode(err, perrors.ErrSourceUnavailable))
	assert.Contains(t, perrors.Message(err), "lab")
}

func TestFetchHosts_BadOutput(t *testing.T) {
	bad := sshtest.NewMockClient("nas")
	bad.SetCommandResponse(probeCommand, sshtest.CommandResponse{Stdout: []byte("garbage")})
	failing := sshtest.NewMockClient("pi")
	failing.SetCommandResponse(probeCommand, sshtest.CommandResponse{ExitCode: 1, Stderr: []byte("cat: /proc/stat: No such file")})

	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"nas": bad, "pi": failing, "ok": healthyClient("ok")}}
	src := NewWithDialer("lab", []string{"nas", "pi", "ok"}, d.dial, nil)

	hosts, err := src.FetchHosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, inventory.HostOffline, hosts[0].Status)
	assert.Equal(t, inventory.HostOffline, hosts[1].Status)
	assert.Equal(t, inventory.HostOnline, hosts[2].Status)
}

func TestFetchHosts_ExecErrorDropsConnection(t *testing.T) {
	broken := sshtest.NewMockClient("nas")
	broken.SetCommandResponse(probeCommand, sshtest.CommandResponse{ExitCode: -1, Error: errors.New("session closed")})
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"nas": broken, "ok": healthyClient("ok")}}
	src := NewWithDialer("lab", []string{"nas", "ok"}, d.dial, nil)

	_, err := src.FetchHosts(context.Background())
	require.NoError(t, err)
	assert.True(t, broken.IsClosed())
	assert.Equal(t, 1, src.pool.Size())
}

func TestFetchHosts_HonorsDeadline(t *testing.T) {
	slow := healthyClient("nas")
	slow.SetDelay(time.Second)
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"nas": slow}}
	src := NewWithDialer("lab", []string{"nas"}, d.dial, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := src.FetchHosts(ctx)
	require.Error(t, err)
	assert.True(t, perrors.IsCode(err, perrors.ErrSourceUnavailable))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

// hangingDialer blocks dialing the hosts in hang until the test ends and
// otherwise behaves like fakeDialer.
func hangingDialer(t *testing.T, d *fakeDialer, hang ...string) DialFunc {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	return func(host string) (sshutil.SSHClient, error) {
		for _, h := range hang {
			if h == host {
				<-release
				return nil, fmt.Errorf("dial tcp %s: i/o timeout", host)
			}
		}
		return d.dial(host)
	}
}

func TestFetchHosts_StalledTargetReportedOffline(t *testing.T) {
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"nas": healthyClient("nas")}}
	log := logger.NewBufferLogger()
	src := NewWithDialer("lab", []string{"nas", "dead"}, hangingDialer(t, d, "dead"), log)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	hosts, err := src.FetchHosts(ctx)
	require.NoError(t, err)
	require.Len(t, hosts, 2)
	assert.Equal(t, "nas", hosts[0].Name)
	assert.Equal(t, inventory.HostOnline, hosts[0].Status)
	assert.Equal(t, "dead", hosts[1].Name)
	assert.Equal(t, inventory.HostOffline, hosts[1].Status)
	assert.NoError(t, ctx.Err(), "fetch should finish before the caller's deadline")
	assert.True(t, log.Contains("warn", "dead unreachable"))
}

func TestFetchHosts_TargetTimeoutWithoutDeadline(t *testing.T) {
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"nas": healthyClient("nas")}}
	src := NewWithDialer("lab", []string{"dead", "nas"}, hangingDialer(t, d, "dead"), nil,
		WithTargetTimeout(50*time.Millisecond))

	start := time.Now()
	hosts, err := src.FetchHosts(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, inventory.HostOffline, hosts[0].Status)
	assert.Equal(t, inventory.HostOnline, hosts[1].Status)
}

func TestTargetContext(t *testing.T) {
	src := NewWithDialer("lab", nil, (&fakeDialer{}).dial, nil, WithTargetTimeout(5*time.Second))

	parent, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ctx, stop := src.targetContext(parent)
	defer stop()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.LessOrEqual(t, time.Until(deadline), time.Second)

	ctx, stop = src.targetContext(context.Background())
	defer stop()
	deadline, ok = ctx.Deadline()
	require.True(t, ok)
	assert.InDelta(t, (5 * time.Second).Seconds(), time.Until(deadline).Seconds(), 0.5)
}

func TestFetchWorkloads_Empty(t *testing.T) {
	src := NewWithDialer("lab", []string{"nas"}, (&fakeDialer{}).dial, nil)
	workloads, err := src.FetchWorkloads(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, workloads)
}

func TestClose(t *testing.T) {
	client := healthyClient("nas")
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"nas": client}}
	src := NewWithDialer("lab", []string{"nas"}, d.dial, nil)

	_, err := src.FetchHosts(context.Background())
	require.NoError(t, err)
	require.NoError(t, src.Close())
	assert.True(t, client.IsClosed())
	assert.Equal(t, "lab", src.Name())
}
