// Package integration exercises pulse end to end: config through the
// source registry, and the collector, scheduler and view state together.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/scheduler"
	"github.com/stretchr/testify/require"
)

// RequireSSH skips the test unless a test SSH server is configured.
// PULSE_TEST_SSH_HOST is any target pulse accepts (alias, user@host:port)
// reachable with the keys in the agent or ~/.ssh.
func RequireSSH(t *testing.T) {
	t.Helper()
	if os.Getenv("PULSE_TEST_SSH_HOST") == "" {
		t.Skip("Skipping: PULSE_TEST_SSH_HOST not set (SSH test server not available)")
	}
}

// testSSHConfig is an ssh provider pointing at the test server. The test
// container's host key changes on every run, so verification is off.
func testSSHConfig() config.SSHConfig {
	return config.SSHConfig{
		Name:                  "itest",
		Hosts:                 []string{os.Getenv("PULSE_TEST_SSH_HOST")},
		InsecureIgnoreHostKey: true,
		ConnectTimeout:        10 * time.Second,
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// cycles collects OnCycle callbacks.
type cycles chan scheduler.Cycle

func (c cycles) onCycle(cy scheduler.Cycle) { c <- cy }

func (c cycles) next(t *testing.T) scheduler.Cycle {
	t.Helper()
	select {
	case cy := <-c:
		return cy
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a refresh cycle")
		return scheduler.Cycle{}
	}
}

// runScheduler starts s and returns a function that stops it and waits
// for Run to return.
func runScheduler(t *testing.T, s *scheduler.Scheduler) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	stop := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("scheduler did not stop")
		}
	}
	t.Cleanup(stop)
	return stop
}
