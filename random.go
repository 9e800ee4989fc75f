package cloudenv

import (
	"context"
	"encoding/binary"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/cloudfile"
	"github.com/lsmcloud/cloudenv/internal/fsrole"
	"github.com/lsmcloud/cloudenv/internal/localfs"
	"github.com/lsmcloud/cloudenv/internal/retry"
)

// encodeFileNumber mirrors cloudfile.ReadableObject.UniqueID's encoding so
// that a file opened from local disk and the same file opened remotely
// present the same cache key.
func encodeFileNumber(n uint64) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	written := binary.PutUvarint(buf, n)
	return buf[:written]
}

// NewRandomAccessFile opens localPath for positioned reads. For
// SST/MANIFEST/IDENTITY files it tries local disk first; on a local miss,
// if keep_local_sst_files is set it copies the object down from dest (then
// src) into localPath and reopens it locally, so later reads are served
// from disk and the local cache stays warm; otherwise it opens the remote
// object directly without ever touching local disk.
func (e *Environment) NewRandomAccessFile(ctx context.Context, localPath string) (RandomAccessFile, error) {
	if err := e.checkInit(); err != nil {
		return nil, err
	}

	info := fsrole.Classify(localPath)

	if info.Role == fsrole.Log && !e.cfg.KeepLocalLogFiles {
		return e.newRandomAccessFileStreamLog(ctx, localPath)
	}

	if f, err := e.fs.OpenForRandomAccess(localPath); err == nil {
		return e.wrapLocalRandomAccess(f, info), nil
	} else if !cerrors.IsNotFound(err) {
		return nil, err
	}

	if !info.Role.UsesObjectStore() {
		return nil, cerrors.NotFoundf("NewRandomAccessFile", localPath, nil)
	}

	if e.cfg.KeepLocalSSTFiles {
		if err := e.copyToLocal(ctx, localPath); err != nil {
			return nil, err
		}
		f, err := e.fs.OpenForRandomAccess(localPath)
		if err != nil {
			return nil, err
		}
		return e.wrapLocalRandomAccess(f, info), nil
	}

	return e.openRemoteRandomAccess(ctx, localPath, info)
}

// copyToLocal downloads localPath's backing object from dest, falling
// back to src, directly into localPath.
func (e *Environment) copyToLocal(ctx context.Context, localPath string) error {
	if e.cfg.HasDest() {
		err := cloudfile.Download(ctx, e.fs, e.client, e.cfg.Dest.BucketPrefix, e.destname(localPath), localPath)
		if err == nil {
			return nil
		}
		if !cerrors.IsNotFound(err) {
			return err
		}
	}
	if e.cfg.HasSrc() {
		return cloudfile.Download(ctx, e.fs, e.client, e.cfg.Src.BucketPrefix, e.srcname(localPath), localPath)
	}
	return cerrors.NotFoundf("NewRandomAccessFile", localPath, nil)
}

func (e *Environment) openRemoteRandomAccess(ctx context.Context, localPath string, info fsrole.Info) (RandomAccessFile, error) {
	if e.cfg.HasDest() {
		r, err := cloudfile.Open(ctx, e.client, e.cfg.Dest.BucketPrefix, e.destname(localPath), info.Number, info.HasNumber)
		if err == nil {
			return &cloudRandomAccessFile{r: r}, nil
		}
		if !cerrors.IsNotFound(err) {
			return nil, err
		}
	}
	if e.cfg.HasSrc() {
		r, err := cloudfile.Open(ctx, e.client, e.cfg.Src.BucketPrefix, e.srcname(localPath), info.Number, info.HasNumber)
		if err == nil {
			return &cloudRandomAccessFile{r: r}, nil
		}
		return nil, err
	}
	return nil, cerrors.NotFoundf("NewRandomAccessFile", localPath, nil)
}

func (e *Environment) wrapLocalRandomAccess(f localfs.ReaderAt, info fsrole.Info) RandomAccessFile {
	lf := &localRandomAccessFile{f: f}
	if info.HasNumber {
		lf.uniqueID = encodeFileNumber(info.Number)
	}
	return lf
}

func (e *Environment) newRandomAccessFileStreamLog(ctx context.Context, localPath string) (RandomAccessFile, error) {
	name := basename(localPath)
	cachePath := e.streamlog.CacheDir() + "/" + name

	err := retry.Poll(ctx, "NewRandomAccessFile", streamLogCacheTimeout, func() error {
		_, statErr := e.fs.Stat(cachePath)
		return statErr
	})
	if err != nil {
		return nil, err
	}

	f, err := e.fs.OpenForRandomAccess(cachePath)
	if err != nil {
		return nil, err
	}
	return &localRandomAccessFile{f: f}, nil
}
