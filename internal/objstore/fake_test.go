package objstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

func TestFakeClientPutHeadGet(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient()

	require.NoError(t, c.Put(ctx, "b", "k", strings.NewReader("hello"), 5))

	meta, err := c.Head(ctx, "b", "k")
	require.NoError(t, err)
	require.Equal(t, int64(5), meta.Size)

	rc, err := c.Get(ctx, "b", "k", 0, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	require.Equal(t, "hello", string(data))
}

func TestFakeClientGetRange(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient()
	require.NoError(t, c.Put(ctx, "b", "k", strings.NewReader("0123456789"), 10))

	rc, err := c.Get(ctx, "b", "k", 3, 4)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	require.Equal(t, "3456", string(data))
}

func TestFakeClientHeadMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient()
	_, err := c.Head(ctx, "b", "missing")
	require.Error(t, err)
	require.True(t, cerrors.IsNotFound(err))
}

func TestFakeClientDeleteAndList(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient()
	require.NoError(t, c.Put(ctx, "b", "dir/a", strings.NewReader("1"), 1))
	require.NoError(t, c.Put(ctx, "b", "dir/b", strings.NewReader("2"), 1))
	require.NoError(t, c.Put(ctx, "b", "other", strings.NewReader("3"), 1))

	page, err := c.List(ctx, "b", "dir/", "")
	require.NoError(t, err)
	require.Len(t, page.Objects, 2)
	require.Equal(t, "", page.ContinuationToken)

	require.NoError(t, c.Delete(ctx, "b", "dir/a"))
	page, err = c.List(ctx, "b", "dir/", "")
	require.NoError(t, err)
	require.Len(t, page.Objects, 1)
	require.Equal(t, "dir/b", page.Objects[0].Key)
}

func TestFakeClientCopy(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient()
	require.NoError(t, c.Put(ctx, "src", "k", strings.NewReader("data"), 4))
	require.NoError(t, c.Copy(ctx, "src", "k", "dst", "k2"))

	meta, err := c.Head(ctx, "dst", "k2")
	require.NoError(t, err)
	require.Equal(t, int64(4), meta.Size)
}
