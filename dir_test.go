package cloudenv

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

func TestCreateDirPutsMarkerThenLocal(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)

	dir := t.TempDir() + "/sub"
	require.NoError(t, e.CreateDir(ctx, dir))

	_, err := fake.Head(ctx, "acme", "db1/sub")
	require.NoError(t, err)

	fi, err := (e.fs).Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestCreateDirIfMissingToleratesExisting(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, _ := newTestEnv(t, cfg)

	dir := t.TempDir() + "/sub"
	require.NoError(t, e.CreateDir(ctx, dir))
	require.NoError(t, e.CreateDirIfMissing(ctx, dir))
}

func TestDeleteDirRefusesWhenDestHasChildren(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)

	dir := t.TempDir() + "/sub"
	require.NoError(t, e.CreateDir(ctx, dir))
	require.NoError(t, fake.Put(ctx, "acme", "db1/sub/000001.sst", strings.NewReader("x"), 1))

	err := e.DeleteDir(ctx, dir)
	require.Error(t, err)
	require.True(t, cerrors.Is(err, cerrors.IOError))

	_, statErr := (e.fs).Stat(dir)
	require.NoError(t, statErr, "refused delete must leave the local directory intact")
}

func TestDeleteDirSucceedsWhenEmpty(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "db1", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)

	dir := t.TempDir() + "/sub"
	require.NoError(t, e.CreateDir(ctx, dir))

	require.NoError(t, e.DeleteDir(ctx, dir))

	_, headErr := fake.Head(ctx, "acme", "db1/sub")
	require.True(t, cerrors.IsNotFound(headErr))
	_, statErr := (e.fs).Stat(dir)
	require.True(t, cerrors.IsNotFound(statErr))
}

func TestGetChildrenFoldsLocalDestAndSrcWithoutDedup(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		CloudType:         CloudNone,
		KeepLocalSSTFiles: true,
		Src:               BucketOptions{BucketPrefix: "acme", ObjectPrefix: "src", Region: "us-west-2"},
		Dest:              BucketOptions{BucketPrefix: "acme", ObjectPrefix: "dest", Region: "us-west-2"},
	}
	e, fake := newTestEnv(t, cfg)

	dir := t.TempDir()
	require.NoError(t, e.CreateDir(ctx, dir+"/db"))
	wf, err := e.fs.Create(dir + "/db/local-only")
	require.NoError(t, err)
	require.NoError(t, wf.Close())

	require.NoError(t, fake.Put(ctx, "acme", "dest/db/000001.sst", strings.NewReader("x"), 1))
	require.NoError(t, fake.Put(ctx, "acme", "src/db/000001.sst", strings.NewReader("x"), 1))

	children, err := e.GetChildren(ctx, dir+"/db")
	require.NoError(t, err)

	count := 0
	for _, c := range children {
		if c == "000001.sst" {
			count++
		}
	}
	require.Equal(t, 2, count, "the same name from both src and dest must appear twice, unmerged")
	require.Contains(t, children, "local-only")
}
