package cloudenv

import (
	"context"
	"time"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/fsrole"
	"github.com/lsmcloud/cloudenv/internal/localfs"
	"github.com/lsmcloud/cloudenv/internal/retry"
)

// GetFileSize returns localPath's size, preferring the local copy when
// present; otherwise the streaming-log cache for LOG files when the log
// tier is active, or Heading dest then src for everything else that uses
// the object store.
func (e *Environment) GetFileSize(ctx context.Context, localPath string) (int64, error) {
	if err := e.checkInit(); err != nil {
		return 0, err
	}
	if fi, err := e.fs.Stat(localPath); err == nil {
		return fi.Size(), nil
	} else if !cerrors.IsNotFound(err) {
		return 0, err
	}

	meta, err := e.headRemote(ctx, localPath)
	if err != nil {
		return 0, err
	}
	return meta.Size, nil
}

// GetFileModificationTime returns localPath's last-modified time, same
// fallback order as GetFileSize.
func (e *Environment) GetFileModificationTime(ctx context.Context, localPath string) (time.Time, error) {
	if err := e.checkInit(); err != nil {
		return time.Time{}, err
	}
	if fi, err := e.fs.Stat(localPath); err == nil {
		return localfs.ModTime(fi), nil
	} else if !cerrors.IsNotFound(err) {
		return time.Time{}, err
	}

	meta, err := e.headRemote(ctx, localPath)
	if err != nil {
		return time.Time{}, err
	}
	return meta.LastModified, nil
}

func (e *Environment) headRemote(ctx context.Context, localPath string) (objectMeta, error) {
	info := fsrole.Classify(localPath)

	if info.Role == fsrole.Log && !e.cfg.KeepLocalLogFiles {
		cachePath := e.streamlog.CacheDir() + "/" + basename(localPath)
		err := retry.Poll(ctx, "GetFileSize", streamLogCacheTimeout, func() error {
			_, statErr := e.fs.Stat(cachePath)
			return statErr
		})
		if err != nil {
			return objectMeta{}, err
		}
		fi, err := e.fs.Stat(cachePath)
		if err != nil {
			return objectMeta{}, err
		}
		return objectMeta{Size: fi.Size(), LastModified: localfs.ModTime(fi)}, nil
	}

	if !info.Role.UsesObjectStore() {
		return objectMeta{}, cerrors.NotFoundf("GetFileSize", localPath, nil)
	}

	if e.cfg.HasDest() {
		meta, err := e.client.Head(ctx, e.cfg.Dest.BucketPrefix, e.destname(localPath))
		if err == nil {
			return objectMeta{Size: meta.Size, LastModified: meta.LastModified}, nil
		}
		if !cerrors.IsNotFound(err) {
			return objectMeta{}, err
		}
	}
	if e.cfg.HasSrc() {
		meta, err := e.client.Head(ctx, e.cfg.Src.BucketPrefix, e.srcname(localPath))
		if err == nil {
			return objectMeta{Size: meta.Size, LastModified: meta.LastModified}, nil
		}
		return objectMeta{}, err
	}
	return objectMeta{}, cerrors.NotFoundf("GetFileSize", localPath, nil)
}

// objectMeta is a local alias mirroring objstore.ObjectMeta so this file
// does not need to import objstore solely for the return type of an
// unexported helper.
type objectMeta struct {
	Size         int64
	LastModified time.Time
}
