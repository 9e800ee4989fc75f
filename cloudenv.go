// Package cloudenv routes a database engine's file operations across local
// disk, a destination object-store bucket, a read-only source object-store
// bucket, and (for write-ahead logs, when configured) a streaming log
// tier, based on the role a file name encodes (SST, MANIFEST, LOG,
// IDENTITY, or anything else).
//
// Fallback ordering is strict: local, then dest, then src. Writes only
// ever go to dest; src is read-only for the lifetime of the environment.
package cloudenv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/deletescheduler"
	"github.com/lsmcloud/cloudenv/internal/localfs"
	"github.com/lsmcloud/cloudenv/internal/metrics"
	"github.com/lsmcloud/cloudenv/internal/objstore"
	"github.com/lsmcloud/cloudenv/internal/streamlog"
)

// defaultFileDeletionDelay is used when Config.FileDeletionDelaySeconds is
// zero, matching the teacher's pattern of filling unset durations with a
// sane default rather than treating zero as "no delay".
const defaultFileDeletionDelay = 60 * time.Second

// streamLogCacheTimeout bounds how long NewSequentialFile/NewRandomAccessFile
// poll the streaming-log tailer's local cache directory before giving up.
const streamLogCacheTimeout = 30 * time.Second

// Environment is the router. Construct with New; it implements the
// filesystem surface the engine expects as ordinary methods (there is no
// separate interface type, since there is exactly one implementation of
// this trait in this module per spec.md §9's "no inheritance chains"
// guidance — a capability struct in place of the source's virtual
// dispatch).
type Environment struct {
	cfg Config

	client *objstore.InstrumentedClient
	fs     localfs.FS

	localDBDir string

	deleter   *deletescheduler.Scheduler
	streamlog streamlog.Capability
	tailer    *logTailer

	// initErr is the persisted construction status. Every operation
	// checks it first and fails fast if set, matching spec.md §4.11's
	// "a failed init renders the environment unusable".
	initErr error
}

// New validates cfg, builds the configured backend client, creates the
// destination bucket if requested, and starts the background deletion
// worker and, when keep_local_log_files is false, the streaming-log
// tailer that drains each LOG stream opened for writing into the log
// tier's local cache directory.
//
// localDBDir is the local directory the engine keeps its files in; it is
// also where writable-object temp files are staged before upload.
func New(ctx context.Context, cfg Config, localDBDir string, log streamlog.Capability) (*Environment, error) {
	e := &Environment{cfg: cfg, fs: localfs.New(), localDBDir: localDBDir, streamlog: log}

	if err := cfg.Validate(); err != nil {
		e.initErr = err
		return e, err
	}

	if err := e.fs.MkdirAll(localDBDir); err != nil {
		e.initErr = err
		return e, err
	}

	client, err := buildClient(ctx, cfg)
	if err != nil {
		e.initErr = cerrors.IOErrorf("New", "", err)
		return e, e.initErr
	}
	instrumented := objstore.NewInstrumentedClient(client)
	if cfg.TelemetryFunc != nil {
		instrumented.SetTelemetryFunc(cfg.TelemetryFunc)
	}
	e.client = instrumented
	metrics.Register()

	if cfg.HasDest() && cfg.CreateBucketIfMissing {
		if err := e.client.CreateBucket(ctx, cfg.Dest.BucketPrefix); err != nil {
			e.initErr = err
			return e, err
		}
	}

	delay := defaultFileDeletionDelay
	if cfg.FileDeletionDelaySeconds > 0 {
		delay = time.Duration(cfg.FileDeletionDelaySeconds) * time.Second
	}
	e.deleter = deletescheduler.New(e.client, delay)
	e.deleter.Start()

	if e.streamlog == nil {
		e.streamlog = streamlog.NewNoop(localDBDir)
	}

	if !cfg.KeepLocalLogFiles {
		e.tailer = &logTailer{}
		if err := e.tailer.start(); err != nil {
			e.initErr = err
			return e, err
		}
	}

	slog.Info("cloudenv initialized", "cloud_type", cfg.CloudType.String(),
		"has_src", cfg.HasSrc(), "has_dest", cfg.HasDest())
	return e, nil
}

// Close stops background workers. It does not delete any data.
func (e *Environment) Close() {
	if e.deleter != nil {
		e.deleter.Shutdown()
	}
	if e.tailer != nil {
		e.tailer.shutdown()
	}
}

func (e *Environment) checkInit() error {
	if e.initErr != nil {
		return e.initErr
	}
	return nil
}

func buildClient(ctx context.Context, cfg Config) (objstore.Client, error) {
	switch cfg.CloudType {
	case CloudNone:
		return objstore.NewFakeClient(), nil
	case CloudAWS:
		region := regionOf(cfg)
		return objstore.NewAWSClient(ctx, region, "", false, cfg.Credentials.AccessKeyID, cfg.Credentials.SecretAccessKey)
	case CloudRackspace:
		// Reuse the AWS backend against a Swift-fronting S3-compatible
		// gateway: custom endpoint, path-style addressing. No separate
		// SDK exists for this in the dependency set available here.
		region := regionOf(cfg)
		return objstore.NewAWSClient(ctx, region, rackspaceEndpoint(region), true, cfg.Credentials.AccessKeyID, cfg.Credentials.SecretAccessKey)
	case CloudGCP:
		return objstore.NewGCPClient(ctx, "")
	case CloudAzure:
		accountURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.Credentials.AccessKeyID)
		return objstore.NewAzureClient(accountURL)
	default:
		return nil, fmt.Errorf("unsupported cloud_type %v", cfg.CloudType)
	}
}

func regionOf(cfg Config) string {
	if cfg.HasDest() {
		return cfg.Dest.Region
	}
	return cfg.Src.Region
}

func rackspaceEndpoint(region string) string {
	return fmt.Sprintf("https://storage101.%s.clouddrive.com/v1", region)
}
