package testing

import (
	"context"
	"errors"
	"testing"
	"time"

	perrors "github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeSource_StampsSource(t *testing.T) {
	f := NewFakeSource("pve").
		SetHosts(inventory.Host{Name: "node1"}).
		SetWorkloads(inventory.Workload{ID: 100, Name: "web"})

	hosts, err := f.FetchHosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pve", hosts[0].Source)

	workloads, err := f.FetchWorkloads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pve", workloads[0].Source)

	assert.Equal(t, 1, f.HostCalls())
	assert.Equal(t, 1, f.WorkloadCalls())
}

func TestFakeSource_Errors(t *testing.T) {
	boom := errors.New("boom")
	f := NewFakeSource("pve").FailWorkloads(boom)

	_, err := f.FetchHosts(context.Background())
	assert.NoError(t, err)
	_, err = f.FetchWorkloads(context.Background())
	assert.ErrorIs(t, err, boom)

	f.FailWorkloads(nil)
	_, err = f.FetchWorkloads(context.Background())
	assert.NoError(t, err)
}

func TestFakeSource_DelayHonorsContext(t *testing.T) {
	f := NewFakeSource("slow").SetDelay(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.FetchHosts(ctx)
	assert.True(t, perrors.IsCode(err, perrors.ErrSourceUnavailable))
}

func TestFakeSource_BlockRelease(t *testing.T) {
	f := NewFakeSource("held").Block()
	done := make(chan struct{})
	go func() {
		_, _ = f.FetchHosts(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return f.HostCalls() == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("call returned before release")
	case <-time.After(20 * time.Millisecond):
	}

	f.Release()
	<-done
	assert.Equal(t, 1, f.MaxInFlight())
}

func TestFakeSource_Panic(t *testing.T) {
	f := NewFakeSource("bad").Panic("nil map")
	assert.PanicsWithValue(t, "nil map", func() {
		_, _ = f.FetchHosts(context.Background())
	})
}
