package cloudenv

import (
	"context"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/cloudfile"
	"github.com/lsmcloud/cloudenv/internal/fsrole"
	"github.com/lsmcloud/cloudenv/internal/retry"
)

// NewSequentialFile opens localPath for forward-only reading, following
// the router's fallback order for the file's role: local disk, then the
// destination bucket, then the source bucket for SST/MANIFEST/IDENTITY
// files; the streaming-log cache (polled via the retry driver) for LOG
// files when the log tier is active; local disk unconditionally for
// everything else.
func (e *Environment) NewSequentialFile(ctx context.Context, localPath string) (SequentialFile, error) {
	if err := e.checkInit(); err != nil {
		return nil, err
	}

	info := fsrole.Classify(localPath)

	if info.Role == fsrole.Log && !e.cfg.KeepLocalLogFiles {
		return e.newSequentialFileStreamLog(ctx, localPath)
	}

	if f, err := e.fs.Open(localPath); err == nil {
		return newLocalSequentialFile(f), nil
	} else if !cerrors.IsNotFound(err) {
		return nil, err
	}

	if !info.Role.UsesObjectStore() {
		return nil, cerrors.NotFoundf("NewSequentialFile", localPath, nil)
	}

	return e.newSequentialFileCloud(ctx, localPath, info)
}

// NewSequentialFileCloud is the cloud-specific counterpart of
// NewSequentialFile: it bypasses the local-disk check entirely and always
// opens the remote object directly (dest, falling back to src), useful to
// callers that already know a file exists only remotely, e.g. tooling
// that inspects a foreign destination bucket without downloading first.
func (e *Environment) NewSequentialFileCloud(ctx context.Context, localPath string) (SequentialFile, error) {
	if err := e.checkInit(); err != nil {
		return nil, err
	}
	return e.newSequentialFileCloud(ctx, localPath, fsrole.Classify(localPath))
}

func (e *Environment) newSequentialFileCloud(ctx context.Context, localPath string, info fsrole.Info) (SequentialFile, error) {
	if e.cfg.HasDest() {
		r, err := cloudfile.Open(ctx, e.client, e.cfg.Dest.BucketPrefix, e.destname(localPath), info.Number, info.HasNumber)
		if err == nil {
			return &cloudSequentialFile{r: r}, nil
		}
		if !cerrors.IsNotFound(err) {
			return nil, err
		}
	}
	if e.cfg.HasSrc() {
		r, err := cloudfile.Open(ctx, e.client, e.cfg.Src.BucketPrefix, e.srcname(localPath), info.Number, info.HasNumber)
		if err == nil {
			return &cloudSequentialFile{r: r}, nil
		}
		return nil, err
	}
	return nil, cerrors.NotFoundf("NewSequentialFile", localPath, nil)
}

func (e *Environment) newSequentialFileStreamLog(ctx context.Context, localPath string) (SequentialFile, error) {
	name := basename(localPath)
	cacheDir := e.streamlog.CacheDir()
	cachePath := cacheDir + "/" + name

	err := retry.Poll(ctx, "NewSequentialFile", streamLogCacheTimeout, func() error {
		_, statErr := e.fs.Stat(cachePath)
		return statErr
	})
	if err != nil {
		return nil, err
	}

	f, err := e.fs.Open(cachePath)
	if err != nil {
		return nil, err
	}
	return newLocalSequentialFile(f), nil
}
