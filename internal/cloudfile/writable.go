package cloudfile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/localfs"
	"github.com/lsmcloud/cloudenv/internal/metrics"
	"github.com/lsmcloud/cloudenv/internal/objstore"
)

// WritableObject buffers appended bytes to a local temp file and uploads
// the whole file to the object store on Close, and — for MANIFEST files —
// opportunistically on Sync, subject to a minimum interval between
// uploads.
type WritableObject struct {
	client objstore.Client
	bucket string
	key    string

	localPath string
	local     localfs.WriteCloser
	fs        localfs.FS

	isManifest              bool
	manifestPeriodicityMs   int64
	manifestLastUploadMicro int64
	keepLocal               bool

	size   int64
	closed bool
}

// nowMicros is overridable in tests; production code always uses wall time.
var nowMicros = func() int64 { return time.Now().UnixNano() / 1000 }

// NewWritableObject creates a local temp file (under localDir) that will be
// uploaded to bucket/key on Close, and on Sync when isManifest is set.
// keepLocal controls whether the local temp file survives Close — it
// mirrors keep_local_sst_files/keep_local_log_files from the environment
// configuration.
func NewWritableObject(fs localfs.FS, localDir string, client objstore.Client, bucket, key string, isManifest bool, manifestPeriodicityMs int64, keepLocal bool) (*WritableObject, error) {
	localPath := localDir + "/" + uuid.NewString() + ".tmp"
	f, err := fs.Create(localPath)
	if err != nil {
		return nil, err
	}
	return &WritableObject{
		client:                client,
		bucket:                bucket,
		key:                   key,
		localPath:             localPath,
		local:                 f,
		fs:                    fs,
		isManifest:            isManifest,
		manifestPeriodicityMs: manifestPeriodicityMs,
		keepLocal:             keepLocal,
	}, nil
}

// Append writes p to the local buffer file.
func (w *WritableObject) Append(p []byte) (int, error) {
	n, err := w.local.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, cerrors.IOErrorf("Append", w.localPath, err)
	}
	return n, nil
}

// Sync flushes the local buffer to disk, and for MANIFEST files uploads it
// to the object store if the manifest durability periodicity has elapsed
// since the last upload.
//
// The elapsed-time comparison is carried over verbatim from the original
// implementation: `last_upload_us + 1000*periodicity_ms < now_us`. Both
// sides are in microseconds (nowMicros), so the factor of 1000 converts
// periodicity_ms to microseconds and an upload happens once more than
// periodicity_ms milliseconds have passed since the last one.
func (w *WritableObject) Sync(ctx context.Context) error {
	if err := w.local.Sync(); err != nil {
		return cerrors.IOErrorf("Sync", w.localPath, err)
	}
	if !w.isManifest {
		return nil
	}
	now := nowMicros()
	if w.manifestLastUploadMicro+1000*w.manifestPeriodicityMs >= now {
		return nil
	}
	if err := w.upload(ctx); err != nil {
		return err
	}
	w.manifestLastUploadMicro = now
	return nil
}

// Close flushes, uploads the final contents unconditionally, and — unless
// keepLocal is set — removes the local temp file. Zero-byte objects are
// refused: the underlying stores treat an empty upload as a paranoia
// signal that something went wrong building the file.
func (w *WritableObject) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.local.Sync(); err != nil {
		_ = w.local.Close()
		return cerrors.IOErrorf("Close", w.localPath, err)
	}
	if err := w.local.Close(); err != nil {
		return cerrors.IOErrorf("Close", w.localPath, err)
	}

	if err := w.upload(ctx); err != nil {
		return err
	}

	if !w.keepLocal {
		if err := w.fs.Remove(w.localPath); err != nil {
			slog.Warn("cloudfile: failed to remove local temp file", "path", w.localPath, "err", err)
		}
	}
	return nil
}

func (w *WritableObject) upload(ctx context.Context) error {
	if w.size == 0 {
		return cerrors.IOErrorf("Upload", w.localPath, fmt.Errorf("refusing to upload a zero-byte object"))
	}
	f, err := w.fs.Open(w.localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	err = w.client.Put(ctx, w.bucket, w.key, f, w.size)
	if err != nil {
		return err
	}

	if w.isManifest {
		elapsed := time.Since(start)
		if ic, ok := w.client.(*objstore.InstrumentedClient); ok {
			if _, dur, known := ic.LastPutResult(); known {
				elapsed = dur
			}
		}
		metrics.ManifestWritesTotal.Inc()
		metrics.ManifestWriteDuration.Observe(elapsed.Seconds())
	}
	return nil
}

// Download copies bucket/key from the object store to destPath on local
// disk via a temp-file-then-rename, refusing (and cleaning up) zero-byte
// results the same way the object store upload path does. Used by
// copy_from_object_store tooling and cold-open resync.
func Download(ctx context.Context, fs localfs.FS, client objstore.Client, bucket, key, destPath string) error {
	tmp := destPath + ".tmp"
	rc, err := client.Get(ctx, bucket, key, 0, -1)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := fs.Create(tmp)
	if err != nil {
		return err
	}

	written := int64(0)
	buf := make([]byte, 64*1024)
	for {
		n, rerr := rc.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				_ = fs.Remove(tmp)
				return cerrors.IOErrorf("Download", destPath, werr)
			}
			written += int64(n)
		}
		if rerr != nil {
			break
		}
	}
	if err := out.Close(); err != nil {
		_ = fs.Remove(tmp)
		return cerrors.IOErrorf("Download", destPath, err)
	}
	if written == 0 {
		_ = fs.Remove(tmp)
		return cerrors.IOErrorf("Download", destPath, fmt.Errorf("refusing zero-byte download of %s/%s", bucket, key))
	}
	if err := fs.Rename(tmp, destPath); err != nil {
		return err
	}
	return nil
}
