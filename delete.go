package cloudenv

import (
	"context"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/fsrole"
)

// DeleteFile removes localPath. For SST/MANIFEST/IDENTITY files with a
// destination bucket configured, the dest-side object is enqueued for
// deferred deletion (see the background deletion scheduler) before the
// local file is removed; local removal happens immediately regardless of
// when the remote delete actually runs. For LOG files routed through the
// streaming-log tier, a tombstone record is emitted instead of a local
// removal. Missing local files are not an error, matching the engine's
// own delete-is-idempotent expectation.
func (e *Environment) DeleteFile(ctx context.Context, localPath string) error {
	if err := e.checkInit(); err != nil {
		return err
	}

	info := fsrole.Classify(localPath)

	if info.Role == fsrole.Log && !e.cfg.KeepLocalLogFiles {
		return e.streamlog.LogDelete(ctx, basename(localPath))
	}

	if info.Role.UsesObjectStore() && e.cfg.HasDest() {
		e.deleter.Enqueue(e.cfg.Dest.BucketPrefix, e.destname(localPath))
	}

	if err := e.fs.Remove(localPath); err != nil && !cerrors.IsNotFound(err) {
		return err
	}
	return nil
}

// EmptyBucket removes every object in bucket whose key starts with
// prefix, page by page, used by test harnesses and operator tooling to
// reset a destination bucket between runs. It is not part of the engine's
// own filesystem surface.
func (e *Environment) EmptyBucket(ctx context.Context, bucket, prefix string) error {
	if err := e.checkInit(); err != nil {
		return err
	}

	token := ""
	for {
		page, err := e.client.List(ctx, bucket, prefix, token)
		if err != nil {
			return err
		}
		for _, obj := range page.Objects {
			if err := e.client.Delete(ctx, bucket, obj.Key); err != nil && !cerrors.IsNotFound(err) {
				return err
			}
		}
		if page.ContinuationToken == "" {
			return nil
		}
		token = page.ContinuationToken
	}
}
