package cloudenv

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/deletescheduler"
	"github.com/lsmcloud/cloudenv/internal/localfs"
	"github.com/lsmcloud/cloudenv/internal/objstore"
	"github.com/lsmcloud/cloudenv/internal/streamlog"
)

// newTestEnv builds an Environment directly against a FakeClient, bypassing
// New's cloud-backend dialing so router behavior (including combinations
// Validate itself would reject, like CloudNone with keep_local_sst_files
// false) can be exercised without a real object store.
func newTestEnv(t *testing.T, cfg Config) (*Environment, *objstore.FakeClient) {
	t.Helper()
	fake := objstore.NewFakeClient()
	inst := objstore.NewInstrumentedClient(fake)
	dir := t.TempDir()

	e := &Environment{
		cfg:        cfg,
		client:     inst,
		fs:         localfs.New(),
		localDBDir: dir,
		deleter:    deletescheduler.New(inst, 30*time.Millisecond),
		streamlog:  streamlog.NewNoop(dir),
	}
	e.deleter.Start()
	t.Cleanup(e.Close)
	return e, fake
}

func TestNewConstructsFakeBackend(t *testing.T) {
	ctx := context.Background()
	cfg := Config{CloudType: CloudNone, KeepLocalSSTFiles: true}
	e, err := New(ctx, cfg, t.TempDir(), nil)
	require.NoError(t, err)
	defer e.Close()

	ok, err := e.FileExists(ctx, "/does/not/exist.sst")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewRejectsRegionMismatchAndStaysFailed(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Src:               BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db2", Region: "us-east-1"},
	}
	e, err := New(ctx, cfg, t.TempDir(), nil)
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.InvalidArgument))

	_, werr := e.NewWritableFile(ctx, "MANIFEST-000001")
	require.ErrorIs(t, werr, err)
}

func TestOpenReadSSTFromSrcOnly(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Src:               BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)

	content := make([]byte, 1024)
	for i := range content {
		content[i] = byte(i)
	}
	require.NoError(t, fake.Put(ctx, "acme", "db1/000123.sst", strings.NewReader(string(content)), int64(len(content))))

	workDir := t.TempDir()
	f, err := e.NewRandomAccessFile(ctx, workDir+"/000123.sst")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 16)
	n, err := f.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	require.Equal(t, content[:16], buf)

	buf4 := make([]byte, 8)
	n, err = f.ReadAt(ctx, buf4, 1020)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, content[1020:1024], buf4[:4])
}

func TestWriteSSTUploadsAndDropsLocalCopy(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: false,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)

	localPath := t.TempDir() + "/000042.sst"
	w, err := e.NewWritableFile(ctx, localPath)
	require.NoError(t, err)

	payload := make([]byte, 4096)
	_, err = w.Append(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	meta, err := fake.Head(ctx, "acme", "db1/000042.sst")
	require.NoError(t, err)
	require.Equal(t, int64(4096), meta.Size)

	exists, err := e.FileExists(ctx, localPath)
	require.NoError(t, err)
	require.True(t, exists, "must be found via dest even though local copy was dropped")

	size, err := e.GetFileSize(ctx, localPath)
	require.NoError(t, err)
	require.Equal(t, int64(4096), size)

	_, statErr := localfs.New().Stat(localPath)
	require.True(t, cerrors.IsNotFound(statErr), "local temp file should not survive Close when keep_local_sst_files=false")
}

func TestWriteSSTKeepsLocalCopyWhenConfigured(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, _ := newTestEnv(t, cfg)

	localPath := t.TempDir() + "/000043.sst"
	w, err := e.NewWritableFile(ctx, localPath)
	require.NoError(t, err)
	_, err = w.Append([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	size, err := e.GetFileSize(ctx, localPath)
	require.NoError(t, err)
	require.Equal(t, int64(4), size, "local Stat must win when the local copy was kept")
}

func TestNewWritableFileRequiresDestForObjectStoreRoles(t *testing.T) {
	ctx := context.Background()
	cfg := Config{CloudType: CloudNone, KeepLocalSSTFiles: true}
	e, _ := newTestEnv(t, cfg)

	_, err := e.NewWritableFile(ctx, t.TempDir()+"/000001.sst")
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.InvalidArgument))
}

func TestManifestSyncSkipsUploadWithZeroPeriodicity(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		KeepLocalLogFiles: true,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)

	localPath := t.TempDir() + "/MANIFEST-000001"
	w, err := e.NewWritableFile(ctx, localPath)
	require.NoError(t, err)

	_, err = w.Append([]byte("v1"))
	require.NoError(t, err)
	require.NoError(t, w.Sync(ctx))

	_, err = fake.Head(ctx, "acme", "db1/MANIFEST-000001")
	require.Error(t, err, "manifest_durable_periodicity_millis=0 disables periodic upload (spec.md §3/§4.7)")
	require.True(t, cerrors.IsNotFound(err))

	require.NoError(t, w.Close(ctx))

	meta, err := fake.Head(ctx, "acme", "db1/MANIFEST-000001")
	require.NoError(t, err, "Close always forces a final upload regardless of periodicity")
	require.Equal(t, int64(2), meta.Size)
}

func TestZeroByteCloseIsRefusedAndLeavesNoObject(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)

	localPath := t.TempDir() + "/000099.sst"
	w, err := e.NewWritableFile(ctx, localPath)
	require.NoError(t, err)
	err = w.Close(ctx)
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.IOError), "zero-byte upload must surface as IOError (spec.md §7/property 5)")

	_, headErr := fake.Head(ctx, "acme", "db1/000099.sst")
	require.Error(t, headErr)
	require.True(t, cerrors.IsNotFound(headErr))
}

func TestDeferredDeletionHonorsDelay(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)

	localPath := t.TempDir() + "/000042.sst"
	w, err := e.NewWritableFile(ctx, localPath)
	require.NoError(t, err)
	_, err = w.Append([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	require.NoError(t, e.DeleteFile(ctx, localPath))

	_, err = fake.Head(ctx, "acme", "db1/000042.sst")
	require.NoError(t, err, "dest object must still exist immediately after DeleteFile")

	require.Eventually(t, func() bool {
		_, err := fake.Head(ctx, "acme", "db1/000042.sst")
		return cerrors.IsNotFound(err)
	}, time.Second, 5*time.Millisecond, "dest object must be gone once the deletion delay elapses")
}

func TestRenamePolicy(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)
	workDir := t.TempDir()

	sst, err := e.NewWritableFile(ctx, workDir+"/000001.sst")
	require.NoError(t, err)
	_, err = sst.Append([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, sst.Close(ctx))
	err = e.RenameFile(ctx, workDir+"/000001.sst", workDir+"/000002.sst")
	require.Error(t, err)
	require.True(t, cerrors.IsNotSupported(err))

	idPath := workDir + "/IDENTITY"
	idf, err := e.NewWritableFile(ctx, idPath)
	require.NoError(t, err)
	_, err = idf.Append([]byte("uuid-1"))
	require.NoError(t, err)
	require.NoError(t, idf.Close(ctx))

	require.NoError(t, e.RenameFile(ctx, idPath, workDir+"/IDENTITY.new"))

	meta, err := fake.Head(ctx, "acme", "db1/IDENTITY.new")
	require.NoError(t, err)
	require.Equal(t, int64(len("uuid-1")), meta.Size)

	_, statErr := localfs.New().Stat(idPath)
	require.True(t, cerrors.IsNotFound(statErr))

	currentPath := workDir + "/CURRENT"
	cf, err := e.NewWritableFile(ctx, currentPath)
	require.NoError(t, err)
	_, err = cf.Append([]byte("MANIFEST-000001\n"))
	require.NoError(t, err)
	require.NoError(t, cf.Close(ctx))

	require.NoError(t, e.RenameFile(ctx, currentPath, workDir+"/CURRENT.new"))

	_, statErr = localfs.New().Stat(currentPath)
	require.True(t, cerrors.IsNotFound(statErr), "OTHER-role rename must remove the old local name")
	fi, statErr := localfs.New().Stat(workDir + "/CURRENT.new")
	require.NoError(t, statErr)
	require.False(t, fi.IsDir())

	_, headErr := fake.Head(ctx, "acme", "db1/CURRENT.new")
	require.True(t, cerrors.IsNotFound(headErr), "OTHER-role rename must not touch the destination bucket")
}

func TestFileExistsFallbackOrder(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Src:               BucketOptions{BucketPrefix: "acme", ObjectPrefix: "src", Region: "us-west-2"},
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "dest", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)
	workDir := t.TempDir()

	ok, err := e.FileExists(ctx, workDir+"/000001.sst")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, fake.Put(ctx, "acme", "src/000001.sst", strings.NewReader("x"), 1))
	ok, err = e.FileExists(ctx, workDir+"/000001.sst")
	require.NoError(t, err)
	require.True(t, ok, "must fall back to src when local and dest are both absent")

	require.NoError(t, fake.Put(ctx, "acme", "dest/000001.sst", strings.NewReader("xx"), 2))
	ok, err = e.FileExists(ctx, workDir+"/000001.sst")
	require.NoError(t, err)
	require.True(t, ok)
}
