package objstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

// AzureBlobAPI is the subset of the Azure Blob Storage client surface this
// backend uses, narrowed for mockability in tests.
type AzureBlobAPI interface {
	Upload(ctx context.Context, containerName, blobName string, data []byte) error
	Download(ctx context.Context, containerName, blobName string, offset, length int64) (io.ReadCloser, error)
	Delete(ctx context.Context, containerName, blobName string) error
	Properties(ctx context.Context, containerName, blobName string) (size int64, mtime time.Time, err error)
	StartCopy(ctx context.Context, containerName, blobName, sourceURL string) error
	ListBlobs(ctx context.Context, containerName, prefix, marker string) (names []string, sizes []int64, nextMarker string, err error)
	CreateContainer(ctx context.Context, containerName string) error
}

type realAzureClient struct {
	client *azblob.Client
}

func newRealAzureClient(accountURL string) (*realAzureClient, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating Azure credential: %w", err)
	}
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Azure Blob client: %w", err)
	}
	return &realAzureClient{client: client}, nil
}

func (c *realAzureClient) Upload(ctx context.Context, containerName, blobName string, data []byte) error {
	_, err := c.client.UploadBuffer(ctx, containerName, blobName, data, nil)
	return err
}

func (c *realAzureClient) Download(ctx context.Context, containerName, blobName string, offset, length int64) (io.ReadCloser, error) {
	opts := &azblob.DownloadStreamOptions{}
	if offset != 0 || length >= 0 {
		rng := blob_HTTPRange(offset, length)
		opts.Range = rng
	}
	resp, err := c.client.DownloadStream(ctx, containerName, blobName, opts)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *realAzureClient) Delete(ctx context.Context, containerName, blobName string) error {
	_, err := c.client.DeleteBlob(ctx, containerName, blobName, nil)
	return err
}

func (c *realAzureClient) Properties(ctx context.Context, containerName, blobName string) (int64, time.Time, error) {
	blobClient := c.client.ServiceClient().NewContainerClient(containerName).NewBlobClient(blobName)
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return 0, time.Time{}, err
	}
	var size int64
	if props.ContentLength != nil {
		size = *props.ContentLength
	}
	var mtime time.Time
	if props.LastModified != nil {
		mtime = *props.LastModified
	}
	return size, mtime, nil
}

func (c *realAzureClient) StartCopy(ctx context.Context, containerName, blobName, sourceURL string) error {
	blobClient := c.client.ServiceClient().NewContainerClient(containerName).NewBlobClient(blobName)
	_, err := blobClient.StartCopyFromURL(ctx, sourceURL, nil)
	return err
}

func (c *realAzureClient) ListBlobs(ctx context.Context, containerName, prefix, marker string) ([]string, []int64, string, error) {
	containerClient := c.client.ServiceClient().NewContainerClient(containerName)
	maxResults := int32(ListPageSize)
	opts := &container.ListBlobsFlatOptions{Prefix: &prefix, MaxResults: &maxResults}
	if marker != "" {
		opts.Marker = &marker
	}
	pager := containerClient.NewListBlobsFlatPager(opts)
	if !pager.More() {
		return nil, nil, "", nil
	}
	resp, err := pager.NextPage(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	var names []string
	var sizes []int64
	for _, item := range resp.Segment.BlobItems {
		names = append(names, *item.Name)
		var sz int64
		if item.Properties != nil && item.Properties.ContentLength != nil {
			sz = *item.Properties.ContentLength
		}
		sizes = append(sizes, sz)
	}
	next := ""
	if resp.NextMarker != nil {
		next = *resp.NextMarker
	}
	return names, sizes, next, nil
}

func (c *realAzureClient) CreateContainer(ctx context.Context, containerName string) error {
	_, err := c.client.CreateContainer(ctx, containerName, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if asResponseError(err, &respErr) && respErr.ErrorCode == "ContainerAlreadyExists" {
			return nil
		}
	}
	return err
}

func blob_HTTPRange(offset, length int64) blob.HTTPRange {
	if length < 0 {
		return blob.HTTPRange{Offset: offset}
	}
	return blob.HTTPRange{Offset: offset, Count: length}
}

func asResponseError(err error, target **azcore.ResponseError) bool {
	re, ok := err.(*azcore.ResponseError)
	if !ok {
		return false
	}
	*target = re
	return true
}

// AzureClient implements Client against Azure Blob Storage.
type AzureClient struct {
	client     AzureBlobAPI
	accountURL string
}

// NewAzureClient builds a client against the given storage account URL
// using DefaultAzureCredential.
func NewAzureClient(accountURL string) (*AzureClient, error) {
	client, err := newRealAzureClient(accountURL)
	if err != nil {
		return nil, err
	}
	return &AzureClient{client: client, accountURL: accountURL}, nil
}

// NewAzureClientWithAPI builds a client around a pre-constructed
// AzureBlobAPI, primarily for tests.
func NewAzureClientWithAPI(accountURL string, api AzureBlobAPI) *AzureClient {
	return &AzureClient{client: api, accountURL: accountURL}
}

func (c *AzureClient) Name() string { return "azure" }

func (c *AzureClient) Head(ctx context.Context, bucket, key string) (ObjectMeta, error) {
	size, mtime, err := c.client.Properties(ctx, bucket, key)
	if err != nil {
		if isAzureNotFound(err) {
			return ObjectMeta{}, cerrors.NotFoundf("Head", bucket+"/"+key, err)
		}
		return ObjectMeta{}, cerrors.IOErrorf("Head", bucket+"/"+key, err)
	}
	return ObjectMeta{Size: size, LastModified: mtime}, nil
}

func (c *AzureClient) Get(ctx context.Context, bucket, key string, offset, length int64) (io.ReadCloser, error) {
	rc, err := c.client.Download(ctx, bucket, key, offset, length)
	if err != nil {
		if isAzureNotFound(err) {
			return nil, cerrors.NotFoundf("Get", bucket+"/"+key, err)
		}
		return nil, cerrors.IOErrorf("Get", bucket+"/"+key, err)
	}
	return rc, nil
}

func (c *AzureClient) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return cerrors.IOErrorf("Put", bucket+"/"+key, err)
	}
	if err := c.client.Upload(ctx, bucket, key, data); err != nil {
		return cerrors.IOErrorf("Put", bucket+"/"+key, err)
	}
	return nil
}

func (c *AzureClient) Delete(ctx context.Context, bucket, key string) error {
	if err := c.client.Delete(ctx, bucket, key); err != nil && !isAzureNotFound(err) {
		return cerrors.IOErrorf("Delete", bucket+"/"+key, err)
	}
	return nil
}

func (c *AzureClient) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	sourceURL := fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.accountURL, "/"), srcBucket, srcKey)
	if err := c.client.StartCopy(ctx, dstBucket, dstKey, sourceURL); err != nil {
		if isAzureNotFound(err) {
			return cerrors.NotFoundf("Copy", srcBucket+"/"+srcKey, err)
		}
		return cerrors.IOErrorf("Copy", srcBucket+"/"+srcKey, err)
	}
	return nil
}

func (c *AzureClient) List(ctx context.Context, bucket, prefix, continuationToken string) (ListPage, error) {
	names, sizes, next, err := c.client.ListBlobs(ctx, bucket, prefix, continuationToken)
	if err != nil {
		return ListPage{}, cerrors.IOErrorf("List", bucket+"/"+prefix, err)
	}
	page := ListPage{ContinuationToken: next}
	for i, name := range names {
		page.Objects = append(page.Objects, ListedObject{Key: name, Size: sizes[i]})
	}
	return page, nil
}

func (c *AzureClient) CreateBucket(ctx context.Context, bucket string) error {
	if err := c.client.CreateContainer(ctx, bucket); err != nil {
		return cerrors.IOErrorf("CreateBucket", bucket, err)
	}
	return nil
}

func isAzureNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404") ||
		strings.Contains(msg, "blobnotfound") || strings.Contains(msg, "containernotfound")
}

var _ Client = (*AzureClient)(nil)
