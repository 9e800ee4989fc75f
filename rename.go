package cloudenv

import (
	"context"
	"fmt"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/fsrole"
)

// RenameFile renames srcPath to dstPath locally. SST, MANIFEST, and LOG
// files can never be renamed — the object store has no atomic rename
// primitive, so the router refuses rather than silently leaving the
// remote copy under the old key. IDENTITY and OTHER are renameable: IDENTITY
// additionally uploads its new content to the destination bucket under the
// new name before the local rename, so the two stay consistent; OTHER files
// (CURRENT, LOCK, OPTIONS-*, ...) never touch the object store at all and
// rename purely locally.
func (e *Environment) RenameFile(ctx context.Context, srcPath, dstPath string) error {
	if err := e.checkInit(); err != nil {
		return err
	}

	info := fsrole.Classify(srcPath)
	if !info.Role.SupportsRename() {
		return cerrors.NotSupportedf("RenameFile", srcPath,
			fmt.Errorf("renaming %s files is not supported", info.Role))
	}

	if info.Role == fsrole.Identity && e.cfg.HasDest() {
		fi, statErr := e.fs.Stat(srcPath)
		if statErr != nil {
			return statErr
		}
		f, err := e.fs.Open(srcPath)
		if err != nil {
			return err
		}
		err = e.client.Put(ctx, e.cfg.Dest.BucketPrefix, e.destname(dstPath), f, fi.Size())
		f.Close()
		if err != nil {
			return err
		}
	}

	return e.fs.Rename(srcPath, dstPath)
}
