package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

// GCSAPI is the subset of the GCS client surface this backend uses,
// narrowed for mockability in tests.
type GCSAPI interface {
	NewWriter(ctx context.Context, bucket, object string) io.WriteCloser
	NewRangeReader(ctx context.Context, bucket, object string, offset, length int64) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, object string) error
	Attrs(ctx context.Context, bucket, object string) (size int64, mtime int64, err error)
	Copy(ctx context.Context, srcBucket, srcObject, dstBucket, dstObject string) error
	ListObjects(ctx context.Context, bucket, prefix, pageToken string) (names []string, sizes []int64, nextPageToken string, err error)
	CreateBucket(ctx context.Context, bucket string) error
}

type realGCSClient struct {
	client    *gcs.Client
	projectID string
}

func (c *realGCSClient) NewWriter(ctx context.Context, bucket, object string) io.WriteCloser {
	return c.client.Bucket(bucket).Object(object).NewWriter(ctx)
}

func (c *realGCSClient) NewRangeReader(ctx context.Context, bucket, object string, offset, length int64) (io.ReadCloser, error) {
	return c.client.Bucket(bucket).Object(object).NewRangeReader(ctx, offset, length)
}

func (c *realGCSClient) Delete(ctx context.Context, bucket, object string) error {
	return c.client.Bucket(bucket).Object(object).Delete(ctx)
}

func (c *realGCSClient) Attrs(ctx context.Context, bucket, object string) (int64, int64, error) {
	attrs, err := c.client.Bucket(bucket).Object(object).Attrs(ctx)
	if err != nil {
		return 0, 0, err
	}
	return attrs.Size, attrs.Updated.UnixNano(), nil
}

func (c *realGCSClient) Copy(ctx context.Context, srcBucket, srcObject, dstBucket, dstObject string) error {
	src := c.client.Bucket(srcBucket).Object(srcObject)
	dst := c.client.Bucket(dstBucket).Object(dstObject)
	_, err := dst.CopierFrom(src).Run(ctx)
	return err
}

func (c *realGCSClient) ListObjects(ctx context.Context, bucket, prefix, pageToken string) ([]string, []int64, string, error) {
	it := c.client.Bucket(bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	it.PageInfo().MaxSize = ListPageSize
	it.PageInfo().Token = pageToken

	var names []string
	var sizes []int64
	for len(names) < ListPageSize {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return names, sizes, "", nil
		}
		if err != nil {
			return nil, nil, "", err
		}
		names = append(names, attrs.Name)
		sizes = append(sizes, attrs.Size)
	}
	return names, sizes, it.PageInfo().Token, nil
}

func (c *realGCSClient) CreateBucket(ctx context.Context, bucket string) error {
	err := c.client.Bucket(bucket).Create(ctx, c.projectID, nil)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 409 {
			return nil
		}
	}
	return err
}

// GCPClient implements Client against Google Cloud Storage.
type GCPClient struct {
	client GCSAPI
}

// NewGCPClient builds a client using Application Default Credentials.
func NewGCPClient(ctx context.Context, projectID string) (*GCPClient, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &GCPClient{client: &realGCSClient{client: client, projectID: projectID}}, nil
}

// NewGCPClientWithAPI builds a client around a pre-constructed GCSAPI,
// primarily for tests.
func NewGCPClientWithAPI(api GCSAPI) *GCPClient {
	return &GCPClient{client: api}
}

func (c *GCPClient) Name() string { return "gcp" }

func (c *GCPClient) Head(ctx context.Context, bucket, key string) (ObjectMeta, error) {
	size, mtime, err := c.client.Attrs(ctx, bucket, key)
	if err != nil {
		if isGCSNotFound(err) {
			return ObjectMeta{}, cerrors.NotFoundf("Head", bucket+"/"+key, err)
		}
		return ObjectMeta{}, cerrors.IOErrorf("Head", bucket+"/"+key, err)
	}
	return ObjectMeta{Size: size, LastModified: time.Unix(0, mtime)}, nil
}

func (c *GCPClient) Get(ctx context.Context, bucket, key string, offset, length int64) (io.ReadCloser, error) {
	r, err := c.client.NewRangeReader(ctx, bucket, key, offset, length)
	if err != nil {
		if isGCSNotFound(err) {
			return nil, cerrors.NotFoundf("Get", bucket+"/"+key, err)
		}
		return nil, cerrors.IOErrorf("Get", bucket+"/"+key, err)
	}
	return r, nil
}

func (c *GCPClient) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	w := c.client.NewWriter(ctx, bucket, key)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return cerrors.IOErrorf("Put", bucket+"/"+key, err)
	}
	if err := w.Close(); err != nil {
		return cerrors.IOErrorf("Put", bucket+"/"+key, err)
	}
	return nil
}

func (c *GCPClient) Delete(ctx context.Context, bucket, key string) error {
	if err := c.client.Delete(ctx, bucket, key); err != nil && !isGCSNotFound(err) {
		return cerrors.IOErrorf("Delete", bucket+"/"+key, err)
	}
	return nil
}

func (c *GCPClient) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := c.client.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey); err != nil {
		if isGCSNotFound(err) {
			return cerrors.NotFoundf("Copy", srcBucket+"/"+srcKey, err)
		}
		return cerrors.IOErrorf("Copy", srcBucket+"/"+srcKey, err)
	}
	return nil
}

func (c *GCPClient) List(ctx context.Context, bucket, prefix, continuationToken string) (ListPage, error) {
	names, sizes, next, err := c.client.ListObjects(ctx, bucket, prefix, continuationToken)
	if err != nil {
		return ListPage{}, cerrors.IOErrorf("List", bucket+"/"+prefix, err)
	}
	page := ListPage{ContinuationToken: next}
	for i, name := range names {
		page.Objects = append(page.Objects, ListedObject{Key: name, Size: sizes[i]})
	}
	return page, nil
}

func (c *GCPClient) CreateBucket(ctx context.Context, bucket string) error {
	if err := c.client.CreateBucket(ctx, bucket); err != nil {
		return cerrors.IOErrorf("CreateBucket", bucket, err)
	}
	return nil
}

func isGCSNotFound(err error) bool {
	return errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist)
}

var _ Client = (*GCPClient)(nil)
