package sshhost

import (
	"context"
	"testing"
	"time"

	"github.com/rileyhilliard/pulse/pkg/sshutil"
	sshtest "github.com/rileyhilliard/pulse/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ReusesLiveConnection(t *testing.T) {
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"nas": sshtest.NewMockClient("nas")}}
	p := NewPool(d.dial)

	c1, err := p.Get(context.Background(), "nas")
	require.NoError(t, err)
	c2, err := p.Get(context.Background(), "nas")
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, int32(1), d.dials.Load())
	assert.Equal(t, 1, p.Size())
}

func TestPool_RedialsDeadConnection(t *testing.T) {
	first := sshtest.NewMockClient("nas")
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"nas": first}}
	p := NewPool(d.dial)

	_, err := p.Get(context.Background(), "nas")
	require.NoError(t, err)

	first.Kill()
	second := sshtest.NewMockClient("nas")
	d.clients["nas"] = second

	c, err := p.Get(context.Background(), "nas")
	require.NoError(t, err)
	assert.Same(t, second, c)
	assert.True(t, first.IsClosed())
}

func TestPool_DialError(t *testing.T) {
	p := NewPool((&fakeDialer{clients: map[string]*sshtest.MockClient{}}).dial)
	_, err := p.Get(context.Background(), "ghost")
	assert.Error(t, err)
	assert.Equal(t, 0, p.Size())
}

func TestPool_DialHonorsContext(t *testing.T) {
	release := make(chan struct{})
	dial := func(host string) (sshutil.SSHClient, error) {
		<-release
		return sshtest.NewMockClient(host), nil
	}
	p := NewPool(dial)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Get(ctx, "nas")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	assert.Eventually(t, func() bool { return p.Size() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPool_Close(t *testing.T) {
	a := sshtest.NewMockClient("a")
	b := sshtest.NewMockClient("b")
	d := &fakeDialer{clients: map[string]*sshtest.MockClient{"a": a, "b": b}}
	p := NewPool(d.dial)

	_, _ = p.Get(context.Background(), "a")
	_, _ = p.Get(context.Background(), "b")
	require.NoError(t, p.Close())

	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.Equal(t, 0, p.Size())
}
