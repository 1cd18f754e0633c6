// Package testing provides an in-memory SSH client for exercising code that
// depends on sshutil.SSHClient without a live server.
package testing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/rileyhilliard/pulse/pkg/sshutil"
)

// CommandResponse defines a canned response for a command.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

// MockClient simulates an SSH connection. Commands are answered from
// responses registered with SetCommandResponse.
type MockClient struct {
	mu       sync.Mutex
	host     string
	closed   bool
	dead     bool
	delay    time.Duration
	commands map[string]CommandResponse
	history  []string
}

var _ sshutil.SSHClient = (*MockClient)(nil)

// NewMockClient creates a mock client for host with no registered commands.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:     host,
		commands: make(map[string]CommandResponse),
	}
}

// SetCommandResponse registers a response. pattern is tried as an exact
// match first and then as a regular expression.
func (m *MockClient) SetCommandResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[pattern] = resp
}

// SetDelay makes every ExecContext wait d before answering.
func (m *MockClient) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Kill makes Alive report false, as if the server went away.
func (m *MockClient) Kill() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dead = true
}

// ExecContext answers cmd from the registered responses. Unknown commands
// exit 127 like a shell would.
func (m *MockClient) ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, -1, errors.New("connection closed")
	}
	m.history = append(m.history, cmd)
	delay := m.delay
	resp, ok := m.lookup(cmd)
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, nil, -1, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, -1, err
	}

	if !ok {
		return nil, []byte(fmt.Sprintf("sh: %s: command not found", cmd)), 127, nil
	}
	return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
}

func (m *MockClient) lookup(cmd string) (CommandResponse, bool) {
	if resp, ok := m.commands[cmd]; ok {
		return resp, true
	}
	for pattern, resp := range m.commands {
		if matched, _ := regexp.MatchString(pattern, cmd); matched {
			return resp, true
		}
	}
	return CommandResponse{}, false
}

// Alive reports false once the client is closed or killed.
func (m *MockClient) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && !m.dead
}

// Close marks the client closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (m *MockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GetHost returns the host passed to NewMockClient.
func (m *MockClient) GetHost() string {
	return m.host
}

// Commands returns the commands executed so far, in order.
func (m *MockClient) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}
