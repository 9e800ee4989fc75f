package cloudenv

import (
	"context"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/objstore"
)

// GetSrcBucketPrefix returns the configured source bucket name, or "" if
// none is configured.
func (e *Environment) GetSrcBucketPrefix() string { return e.cfg.Src.BucketPrefix }

// GetSrcObjectPrefix returns the configured source object key prefix.
func (e *Environment) GetSrcObjectPrefix() string { return e.cfg.Src.ObjectPrefix }

// GetDestBucketPrefix returns the configured destination bucket name, or
// "" if none is configured.
func (e *Environment) GetDestBucketPrefix() string { return e.cfg.Dest.BucketPrefix }

// GetDestObjectPrefix returns the configured destination object key
// prefix.
func (e *Environment) GetDestObjectPrefix() string { return e.cfg.Dest.ObjectPrefix }

// ListObjects exposes the underlying object store's paginated listing
// directly, for tooling that needs to inspect a bucket without going
// through the local/dest/src routing rules.
func (e *Environment) ListObjects(ctx context.Context, bucket, prefix, continuationToken string) (objstore.ListPage, error) {
	if err := e.checkInit(); err != nil {
		return objstore.ListPage{}, err
	}
	return e.client.List(ctx, bucket, prefix, continuationToken)
}

// DeleteObject deletes bucket/key immediately, bypassing the deferred
// deletion scheduler. Used for housekeeping (directory markers, dbid
// entries), never for SST deletion.
func (e *Environment) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := e.checkInit(); err != nil {
		return err
	}
	return e.client.Delete(ctx, bucket, key)
}

// ExistsObject reports whether bucket/key exists.
func (e *Environment) ExistsObject(ctx context.Context, bucket, key string) (bool, error) {
	if err := e.checkInit(); err != nil {
		return false, err
	}
	_, err := e.client.Head(ctx, bucket, key)
	if err == nil {
		return true, nil
	}
	if cerrors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// GetObjectSize returns bucket/key's size via Head.
func (e *Environment) GetObjectSize(ctx context.Context, bucket, key string) (int64, error) {
	if err := e.checkInit(); err != nil {
		return 0, err
	}
	meta, err := e.client.Head(ctx, bucket, key)
	if err != nil {
		return 0, err
	}
	return meta.Size, nil
}

// CopyObject copies srcBucket/srcKey to dstBucket/dstKey server-side where
// the backend supports it.
func (e *Environment) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := e.checkInit(); err != nil {
		return err
	}
	return e.client.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey)
}
