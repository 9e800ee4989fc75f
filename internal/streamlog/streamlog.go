// Package streamlog defines the streaming-log capability the environment
// delegates WAL (LOG-role) files to when a log-tier is configured, standing
// in for the append-only, tailable log store that is an external
// collaborator of this module.
package streamlog

import (
	"context"
	"io"
)

// Capability is the surface the environment router needs from a streaming
// log implementation. It is intentionally narrow: stream lifecycle, one
// append path, one tail path, and a delete-marker — the wire protocol and
// storage format are out of scope for this module.
type Capability interface {
	// CacheDir returns the local directory streamed records are staged
	// into before being considered durable, used by the retry-driven
	// cache reader.
	CacheDir() string

	// CreateStream opens name for appending, returning Busy if a stream
	// by that name is already open.
	CreateStream(ctx context.Context, name string) error

	// Append writes p to the named stream.
	Append(ctx context.Context, name string, p []byte) error

	// MarkClosed finalizes a stream; it can no longer be appended to.
	MarkClosed(ctx context.Context, name string) error

	// TailStream returns a reader over name starting at the given byte
	// offset; reads block (subject to ctx) until more data is appended or
	// the stream is closed, in which case io.EOF is returned once all
	// buffered data has been consumed.
	TailStream(ctx context.Context, name string, offset int64) (io.ReadCloser, error)

	// LogDelete removes the named stream's cached and durable state.
	LogDelete(ctx context.Context, name string) error
}

// Noop is a Capability that does nothing and reports every stream as
// immediately closed with no data — used when the environment is
// configured without a log-tier (log-backed WAL files then fall through
// to local disk, per the classifier's routing rules) and in tests that
// never exercise the log tier.
type Noop struct {
	cacheDir string
}

// NewNoop returns a Capability backed by no storage at all.
func NewNoop(cacheDir string) *Noop { return &Noop{cacheDir: cacheDir} }

func (n *Noop) CacheDir() string { return n.cacheDir }

func (n *Noop) CreateStream(context.Context, string) error { return nil }

func (n *Noop) Append(context.Context, string, []byte) error { return nil }

func (n *Noop) MarkClosed(context.Context, string) error { return nil }

func (n *Noop) TailStream(context.Context, string, int64) (io.ReadCloser, error) {
	return io.NopCloser(emptyReader{}), nil
}

func (n *Noop) LogDelete(context.Context, string) error { return nil }

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }

var _ Capability = (*Noop)(nil)
