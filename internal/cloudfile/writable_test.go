package cloudfile

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/localfs"
	"github.com/lsmcloud/cloudenv/internal/objstore"
)

func TestWritableObjectUploadsOnClose(t *testing.T) {
	ctx := context.Background()
	fs := localfs.New()
	dir := t.TempDir()
	client := objstore.NewFakeClient()

	w, err := NewWritableObject(fs, dir, client, "b", "000042.sst", false, 0, false)
	require.NoError(t, err)
	_, err = w.Append([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close(ctx))

	meta, err := client.Head(ctx, "b", "000042.sst")
	require.NoError(t, err)
	require.Equal(t, int64(len("payload")), meta.Size)
}

func TestWritableObjectRefusesZeroByteUpload(t *testing.T) {
	ctx := context.Background()
	fs := localfs.New()
	dir := t.TempDir()
	client := objstore.NewFakeClient()

	w, err := NewWritableObject(fs, dir, client, "b", "000043.sst", false, 0, false)
	require.NoError(t, err)
	err = w.Close(ctx)
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.IOError), "zero-byte upload must surface as IOError (spec.md §7/property 5)")

	_, headErr := client.Head(ctx, "b", "000043.sst")
	require.Error(t, headErr)
}

func TestWritableObjectManifestCadence(t *testing.T) {
	ctx := context.Background()
	fs := localfs.New()
	dir := t.TempDir()
	client := objstore.NewFakeClient()

	now := int64(1_000_000)
	restore := nowMicros
	nowMicros = func() int64 { return now }
	defer func() { nowMicros = restore }()

	w, err := NewWritableObject(fs, dir, client, "b", "MANIFEST-000001", true, 60000, true)
	require.NoError(t, err)
	_, err = w.Append([]byte("v1"))
	require.NoError(t, err)
	require.NoError(t, w.Sync(ctx))

	_, err = client.Head(ctx, "b", "MANIFEST-000001")
	require.True(t, cerrors.IsNotFound(err), "first sync must not upload: 0+1000*60000 > 1_000_000")

	now = 60_000_001
	_, err = w.Append([]byte("v2"))
	require.NoError(t, err)
	require.NoError(t, w.Sync(ctx))
	meta, err := client.Head(ctx, "b", "MANIFEST-000001")
	require.NoError(t, err, "sync past the cadence window uploads")
	require.Equal(t, int64(len("v1v2")), meta.Size)

	require.NoError(t, w.Close(ctx))
}

func TestDownloadRefusesZeroByteResult(t *testing.T) {
	ctx := context.Background()
	fs := localfs.New()
	dir := t.TempDir()
	client := objstore.NewFakeClient()
	require.NoError(t, client.Put(ctx, "b", "k", emptyReadCloser{}, 0))

	err := Download(ctx, fs, client, "b", "k", dir+"/dest")
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.IOError), "zero-byte download must surface as IOError (spec.md §7/property 5)")

	_, statErr := fs.Stat(dir + "/dest")
	require.Error(t, statErr)
	require.True(t, cerrors.IsNotFound(statErr))
}

type emptyReadCloser struct{}

func (emptyReadCloser) Read([]byte) (int, error) { return 0, io.EOF }
