package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	perrors "github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/source"
	srctest "github.com/rileyhilliard/pulse/internal/source/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostNames(hosts []inventory.Host) []string {
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.Source + "/" + h.Name
	}
	return names
}

func TestCollect_MergesInRegistrationOrder(t *testing.T) {
	a := srctest.NewFakeSource("a").
		SetHosts(inventory.Host{Name: "n2"}, inventory.Host{Name: "n1"}).
		SetWorkloads(inventory.Workload{ID: 100, Name: "web", Host: "n1"})
	b := srctest.NewFakeSource("b").
		SetHosts(inventory.Host{Name: "n1"}).
		SetWorkloads(inventory.Workload{ID: 100, Name: "db", Host: "n1"})

	taken := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := New([]source.DataSource{a, b}, WithClock(func() time.Time { return taken }))

	snap, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a/n2", "a/n1", "b/n1"}, hostNames(snap.Hosts))
	require.Len(t, snap.Workloads, 2)
	assert.Equal(t, "a", snap.Workloads[0].Source)
	assert.Equal(t, "b", snap.Workloads[1].Source)
	assert.NotEqual(t, snap.Workloads[0].Key(), snap.Workloads[1].Key(), "same raw id from two sources stays distinct")

	assert.Equal(t, taken, snap.Taken)
	assert.NotEmpty(t, snap.ID)
	require.Len(t, snap.Sources, 2)
	assert.Equal(t, inventory.SourceStatus{Name: "a", Hosts: 2, Workloads: 1}, snap.Sources[0])
	assert.Empty(t, snap.Failed())
}

func TestCollect_PartialFailureFromTimeout(t *testing.T) {
	a := srctest.NewFakeSource("a").SetHosts(inventory.Host{Name: "h1"}, inventory.Host{Name: "h2"})
	b := srctest.NewFakeSource("b").SetHosts(inventory.Host{Name: "h3"}).Block()
	defer b.Release()

	c := New([]source.DataSource{a, b}, WithTimeout(50*time.Millisecond))

	start := time.Now()
	snap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, []string{"a/h1", "a/h2"}, hostNames(snap.Hosts))
	assert.Equal(t, []string{"b"}, snap.Failed())

	st, ok := snap.Source("b")
	require.True(t, ok)
	assert.True(t, perrors.IsCode(st.Err, perrors.ErrSourceUnavailable))
}

func TestCollect_SourceIgnoringContextIsAbandoned(t *testing.T) {
	a := srctest.NewFakeSource("a").SetHosts(inventory.Host{Name: "h1"})
	stuck := srctest.NewFakeSource("stuck").Block().IgnoreContext()
	defer stuck.Release()

	c := New([]source.DataSource{a, stuck}, WithTimeout(30*time.Millisecond))

	done := make(chan struct{})
	var snap *inventory.Snapshot
	go func() {
		defer close(done)
		snap, _ = c.Collect(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Collect waited for a source that ignores its context")
	}
	require.NotNil(t, snap)
	assert.Equal(t, []string{"stuck"}, snap.Failed())
}

func TestCollect_OneFailingCallFailsSource(t *testing.T) {
	a := srctest.NewFakeSource("a").
		SetHosts(inventory.Host{Name: "h1"}).
		FailWorkloads(source.Protocol("a", errors.New("bad json"), "unexpected response"))
	b := srctest.NewFakeSource("b").SetHosts(inventory.Host{Name: "h2"})

	snap, err := New([]source.DataSource{a, b}).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"b/h2"}, hostNames(snap.Hosts), "failed source contributes nothing")
	st, _ := snap.Source("a")
	assert.True(t, perrors.IsCode(st.Err, perrors.ErrSourceProtocol))
	assert.Zero(t, st.Hosts)
}

func TestCollect_AllFailed(t *testing.T) {
	a := srctest.NewFakeSource("a").FailHosts(errors.New("refused"))
	b := srctest.NewFakeSource("b").FailWorkloads(errors.New("garbled"))
	log := logger.NewBufferLogger()

	snap, err := New([]source.DataSource{a, b}, WithLogger(log)).Collect(context.Background())
	assert.Nil(t, snap)
	require.Error(t, err)
	assert.True(t, perrors.IsCode(err, perrors.ErrAllSourcesFailed))
	assert.Equal(t, "All sources failed: a, b", perrors.Message(err))
	assert.True(t, log.Contains("warn", "source a failed"))
}

func TestCollect_NoSources(t *testing.T) {
	snap, err := New(nil).Collect(context.Background())
	assert.Nil(t, snap)
	assert.True(t, perrors.IsCode(err, perrors.ErrAllSourcesFailed))
}

func TestCollect_RecoversPanics(t *testing.T) {
	bad := srctest.NewFakeSource("bad").Panic("index out of range")
	good := srctest.NewFakeSource("good").SetHosts(inventory.Host{Name: "h1"})

	var snap *inventory.Snapshot
	var err error
	require.NotPanics(t, func() {
		snap, err = New([]source.DataSource{bad, good}).Collect(context.Background())
	})
	require.NoError(t, err)

	st, _ := snap.Source("bad")
	assert.True(t, perrors.IsCode(st.Err, perrors.ErrSourceProtocol))
	assert.Contains(t, st.Err.Error(), "index out of range")
}

func TestCollect_ClassifiesPlainErrors(t *testing.T) {
	a := srctest.NewFakeSource("a").FailHosts(errors.New("weird"))
	b := srctest.NewFakeSource("b")

	snap, err := New([]source.DataSource{a, b}).Collect(context.Background())
	require.NoError(t, err)
	st, _ := snap.Source("a")
	assert.True(t, perrors.IsCode(st.Err, perrors.ErrSourceProtocol))
}

func TestCollect_CallsRunConcurrently(t *testing.T) {
	a := srctest.NewFakeSource("a").SetDelay(40 * time.Millisecond)
	b := srctest.NewFakeSource("b").SetDelay(40 * time.Millisecond)

	start := time.Now()
	_, err := New([]source.DataSource{a, b}).Collect(context.Background())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, 2, a.MaxInFlight(), "hosts and workloads fetched together")
	assert.Equal(t, 1, a.HostCalls())
	assert.Equal(t, 1, a.WorkloadCalls())
}

func TestNames(t *testing.T) {
	c := New([]source.DataSource{srctest.NewFakeSource("x"), srctest.NewFakeSource("y")}, WithTimeout(3*time.Second))
	assert.Equal(t, []string{"x", "y"}, c.Names())
	assert.Equal(t, 3*time.Second, c.Timeout())
}
