package cloudenv

import (
	"context"
	"io"
	"strings"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

// dbidBodyPrefix prefixes the directory name SaveDbid writes as the
// registry object's body and GetPathForDbid strips when reading it back.
// Real backends would carry dirname through Put/Head as SDK-specific
// custom metadata; since objstore.Client's Put/Head surface carries
// no generic metadata map (spec.md's external object-store primitives are
// narrowed to what the router actually needs), the directory name is
// instead encoded as the object body itself — a small, deliberate
// simplification over per-backend custom-metadata plumbing, recorded as
// such rather than silently matched to the source's metadata-based
// encoding.
const dbidBodyPrefix = "dirname="

// SaveDbid registers dbid as living at dirname in the destination bucket's
// dbid registry.
func (e *Environment) SaveDbid(ctx context.Context, dbid, dirname string) error {
	if err := e.checkInit(); err != nil {
		return err
	}
	if !e.cfg.HasDest() {
		return cerrors.InvalidArgumentf("SaveDbid", dbid, errNoDestBucket)
	}
	body := dbidBodyPrefix + dirname
	return e.client.Put(ctx, e.cfg.Dest.BucketPrefix, dbidKey(dbid), strings.NewReader(body), int64(len(body)))
}

// GetPathForDbid resolves dbid to its registered directory name.
func (e *Environment) GetPathForDbid(ctx context.Context, dbid string) (string, error) {
	if err := e.checkInit(); err != nil {
		return "", err
	}
	if !e.cfg.HasDest() {
		return "", cerrors.InvalidArgumentf("GetPathForDbid", dbid, errNoDestBucket)
	}
	rc, err := e.client.Get(ctx, e.cfg.Dest.BucketPrefix, dbidKey(dbid), 0, -1)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return "", cerrors.IOErrorf("GetPathForDbid", dbid, err)
	}
	return strings.TrimPrefix(string(body), dbidBodyPrefix), nil
}

// GetDbidList returns every registered dbid mapped to its directory name.
func (e *Environment) GetDbidList(ctx context.Context) (map[string]string, error) {
	if err := e.checkInit(); err != nil {
		return nil, err
	}
	if !e.cfg.HasDest() {
		return nil, cerrors.InvalidArgumentf("GetDbidList", "", errNoDestBucket)
	}

	result := make(map[string]string)
	token := ""
	for {
		page, err := e.client.List(ctx, e.cfg.Dest.BucketPrefix, dbidPrefix, token)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Objects {
			dbid := strings.TrimPrefix(obj.Key, dbidPrefix)
			dirname, err := e.GetPathForDbid(ctx, dbid)
			if err != nil {
				return nil, err
			}
			result[dbid] = dirname
		}
		if page.ContinuationToken == "" {
			return result, nil
		}
		token = page.ContinuationToken
	}
}

// DeleteDbid removes dbid's registry entry.
func (e *Environment) DeleteDbid(ctx context.Context, dbid string) error {
	if err := e.checkInit(); err != nil {
		return err
	}
	if !e.cfg.HasDest() {
		return cerrors.InvalidArgumentf("DeleteDbid", dbid, errNoDestBucket)
	}
	return e.client.Delete(ctx, e.cfg.Dest.BucketPrefix, dbidKey(dbid))
}

type noDestBucketError struct{}

func (noDestBucketError) Error() string { return "no destination bucket is configured" }

var errNoDestBucket = noDestBucketError{}
