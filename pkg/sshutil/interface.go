package sshutil

import "context"

// SSHClient is the subset of Client the rest of pulse depends on.
// Both the real Client and the mock in sshutil/testing satisfy it.
type SSHClient interface {
	// ExecContext runs a command and returns stdout, stderr, and exit code.
	// Exit code is -1 if the command couldn't be executed at all.
	// A non-zero exit code with nil error means the command ran but failed.
	ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error)

	// Alive reports whether the connection still answers.
	Alive() bool

	// Close closes the SSH connection.
	Close() error

	// GetHost returns the original host/alias used to connect.
	GetHost() string
}

var _ SSHClient = (*Client)(nil)
