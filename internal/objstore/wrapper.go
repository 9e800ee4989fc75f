package objstore

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lsmcloud/cloudenv/internal/metrics"
)

// InstrumentedClient wraps a Client with per-operation logging and
// Prometheus telemetry, and tracks the outcome of the most recent Put on
// this wrapper instance.
//
// The underlying C++ environment keeps this as thread-local state read
// back by the manifest-upload bookkeeping path. Go has no per-goroutine
// thread-local storage, so it is approximated here as state scoped to one
// InstrumentedClient instance (normally one per Environment) rather than
// one per goroutine; callers that need true per-caller isolation should
// wrap separate Client instances.
type InstrumentedClient struct {
	inner Client

	lastPutOK            atomic.Bool
	lastPutAtNanos       atomic.Int64
	lastPutDurationNanos atomic.Int64

	// telemetry, when set, is invoked synchronously after every op with
	// (opKind, bytes, elapsedMicros, ok) — the caller-supplied hook from
	// the environment's Config.TelemetryFunc.
	telemetry func(opKind string, bytes int64, elapsedMicros int64, ok bool)
}

// NewInstrumentedClient wraps inner with telemetry.
func NewInstrumentedClient(inner Client) *InstrumentedClient {
	return &InstrumentedClient{inner: inner}
}

// SetTelemetryFunc installs the caller-supplied telemetry hook. It is not
// part of the Client interface since it is a one-time setup call, not an
// operation.
func (c *InstrumentedClient) SetTelemetryFunc(fn func(opKind string, bytes int64, elapsedMicros int64, ok bool)) {
	c.telemetry = fn
}

func (c *InstrumentedClient) Name() string { return c.inner.Name() }

// LastPutResult reports whether the most recent Put on this wrapper
// succeeded, how long it took, and whether any Put has happened yet.
func (c *InstrumentedClient) LastPutResult() (ok bool, duration time.Duration, known bool) {
	at := c.lastPutAtNanos.Load()
	return c.lastPutOK.Load(), time.Duration(c.lastPutDurationNanos.Load()), at != 0
}

func (c *InstrumentedClient) observe(op string, start time.Time, size int64, err error) {
	dur := time.Since(start)
	ok := "true"
	if err != nil {
		ok = "false"
	}
	metrics.ObjectStoreOpsTotal.WithLabelValues(op, c.inner.Name(), ok).Inc()
	metrics.ObjectStoreOpDuration.WithLabelValues(op, c.inner.Name()).Observe(dur.Seconds())
	if size > 0 {
		metrics.ObjectStoreBytesTotal.WithLabelValues(op, c.inner.Name()).Add(float64(size))
		metrics.ObjectSizeBytes.WithLabelValues(op).Observe(float64(size))
	}
	lvl := slog.LevelDebug
	if err != nil {
		lvl = slog.LevelWarn
	}
	slog.Log(context.Background(), lvl, "objstore op", "op", op, "backend", c.inner.Name(), "duration", dur, "err", err)

	if c.telemetry != nil {
		c.telemetry(op, size, dur.Microseconds(), err == nil)
	}
}

func (c *InstrumentedClient) Head(ctx context.Context, bucket, key string) (ObjectMeta, error) {
	start := time.Now()
	meta, err := c.inner.Head(ctx, bucket, key)
	c.observe("Head", start, 0, err)
	return meta, err
}

func (c *InstrumentedClient) Get(ctx context.Context, bucket, key string, offset, length int64) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := c.inner.Get(ctx, bucket, key, offset, length)
	size := length
	if size < 0 {
		size = 0
	}
	c.observe("Get", start, size, err)
	return rc, err
}

func (c *InstrumentedClient) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	start := time.Now()
	err := c.inner.Put(ctx, bucket, key, r, size)
	c.observe("Put", start, size, err)
	c.lastPutOK.Store(err == nil)
	c.lastPutDurationNanos.Store(int64(time.Since(start)))
	c.lastPutAtNanos.Store(time.Now().UnixNano())
	return err
}

func (c *InstrumentedClient) Delete(ctx context.Context, bucket, key string) error {
	start := time.Now()
	err := c.inner.Delete(ctx, bucket, key)
	c.observe("Delete", start, 0, err)
	return err
}

func (c *InstrumentedClient) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	start := time.Now()
	err := c.inner.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey)
	c.observe("Copy", start, 0, err)
	return err
}

func (c *InstrumentedClient) List(ctx context.Context, bucket, prefix, continuationToken string) (ListPage, error) {
	start := time.Now()
	page, err := c.inner.List(ctx, bucket, prefix, continuationToken)
	c.observe("List", start, 0, err)
	return page, err
}

func (c *InstrumentedClient) CreateBucket(ctx context.Context, bucket string) error {
	start := time.Now()
	err := c.inner.CreateBucket(ctx, bucket)
	c.observe("CreateBucket", start, 0, err)
	return err
}

var _ Client = (*InstrumentedClient)(nil)
