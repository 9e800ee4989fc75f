package cloudenv

import (
	"context"
	"fmt"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/cloudfile"
	"github.com/lsmcloud/cloudenv/internal/fsrole"
)

// NewWritableFile opens localPath for writing. SST/MANIFEST/IDENTITY files
// are buffered to a local temp file and uploaded to the destination bucket
// (which must exist) on close — MANIFEST files additionally upload on Sync
// once manifest_durable_periodicity_millis has elapsed. LOG files are
// routed to the streaming-log writer when keep_local_log_files is false;
// everything else, including LOG files when keep_local_log_files is true,
// is written straight to local disk.
func (e *Environment) NewWritableFile(ctx context.Context, localPath string) (WritableFile, error) {
	if err := e.checkInit(); err != nil {
		return nil, err
	}

	info := fsrole.Classify(localPath)

	if info.Role == fsrole.Log && !e.cfg.KeepLocalLogFiles {
		name := basename(localPath)
		if err := e.streamlog.CreateStream(ctx, name); err != nil {
			return nil, err
		}
		e.watchLogStream(name)
		return &streamWritableFile{log: e.streamlog, name: name}, nil
	}

	if !info.Role.UsesObjectStore() {
		f, err := e.fs.Create(localPath)
		if err != nil {
			return nil, err
		}
		return &localWritableFile{f: f}, nil
	}

	if !e.cfg.HasDest() {
		return nil, cerrors.InvalidArgumentf("NewWritableFile", localPath,
			fmt.Errorf("a destination bucket is required to write %s files", info.Role))
	}

	periodicityMs := int64(0)
	isManifest := info.Role == fsrole.Manifest && e.cfg.ManifestDurablePeriodicityMillis > 0
	if isManifest {
		periodicityMs = int64(e.cfg.ManifestDurablePeriodicityMillis)
	}

	// Only SSTs ever drop their local copy after upload; MANIFEST and
	// IDENTITY are small control files the router re-reads locally and
	// are always kept.
	keepLocal := true
	if info.Role == fsrole.SST {
		keepLocal = e.cfg.KeepLocalSSTFiles
	}

	w, err := cloudfile.NewWritableObject(e.fs, e.localDBDir, e.client, e.cfg.Dest.BucketPrefix,
		e.destname(localPath), isManifest, periodicityMs, keepLocal)
	if err != nil {
		return nil, err
	}
	return &cloudWritableFile{w: w}, nil
}
