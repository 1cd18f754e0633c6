// Package source defines the DataSource capability implemented by every
// backend integration, and the registry that builds the configured set.
//
// A DataSource is polled by the collector once per refresh cycle. Each
// call receives a context carrying the per-call deadline; implementations
// must honour it and must report failures as errors, never panics.
// Errors should carry one of two codes from the errors package:
//
//	SOURCE_UNAVAILABLE - the backend could not be reached in time
//	SOURCE_PROTOCOL    - the backend answered, but not with what we expected
//
// Classify normalizes anything else into one of those.
package source

import (
	"context"
	stderrors "errors"
	"net"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"go.uber.org/multierr"
)

// DataSource is one backend integration.
type DataSource interface {
	// Name is the configured source name. Identifiers are unique per name.
	Name() string
	FetchHosts(ctx context.Context) ([]inventory.Host, error)
	FetchWorkloads(ctx context.Context) ([]inventory.Workload, error)
}

// Closer is implemented by sources that hold connections open between cycles.
type Closer interface {
	Close() error
}

// Unavailable builds a SOURCE_UNAVAILABLE error for the named source.
func Unavailable(name string, cause error, message string) *errors.Error {
	return errors.WrapWithCode(cause, errors.ErrSourceUnavailable,
		name+": "+message,
		"pulse will retry on the next refresh")
}

// Protocol builds a SOURCE_PROTOCOL error for the named source.
func Protocol(name string, cause error, message string) *errors.Error {
	return errors.WrapWithCode(cause, errors.ErrSourceProtocol,
		name+": "+message,
		"Check the backend version and the credentials configured for this source")
}

// Classify returns err coded as unavailable or protocol. Errors that already
// carry one of the two codes are returned unchanged.
func Classify(name string, err error) error {
	if err == nil {
		return nil
	}
	switch errors.Code(err) {
	case errors.ErrSourceUnavailable, errors.ErrSourceProtocol:
		return err
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return Unavailable(name, err, "timed out")
	}
	if stderrors.Is(err, context.Canceled) {
		return Unavailable(name, err, "cancelled")
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return Unavailable(name, err, "unreachable")
	}
	return Protocol(name, err, "unexpected response")
}

// Close closes every source that holds resources.
func Close(sources []DataSource) error {
	var err error
	for _, s := range sources {
		if c, ok := s.(Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
