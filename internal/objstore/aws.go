package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

// S3API is the subset of the AWS S3 client this backend uses, narrowed so
// tests can substitute a hand-written fake instead of the real SDK client.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// AWSClient implements Client against Amazon S3, or any S3-compatible
// gateway reached via a custom endpoint (used for the Rackspace cloud_type:
// point this backend at a Swift-fronting S3-compatible endpoint with
// path-style addressing instead of introducing a second SDK).
type AWSClient struct {
	client S3API
	region string
}

// NewAWSClient builds a client against the given region, with optional
// endpoint/path-style overrides for S3-compatible gateways that are not
// Amazon's own endpoints.
func NewAWSClient(ctx context.Context, region, endpointURL string, usePathStyle bool, accessKeyID, secretAccessKey string) (*AWSClient, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	loadOpts = append(loadOpts, awsconfig.WithRegion(region))

	if accessKeyID != "" && secretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if endpointURL != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
		})
	}
	if usePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &AWSClient{client: s3.NewFromConfig(cfg, s3Opts...), region: region}, nil
}

// NewAWSClientWithAPI builds a client around a pre-constructed S3API,
// primarily for tests.
func NewAWSClientWithAPI(region string, api S3API) *AWSClient {
	return &AWSClient{client: api, region: region}
}

func (c *AWSClient) Name() string { return "aws" }

func (c *AWSClient) Head(ctx context.Context, bucket, key string) (ObjectMeta, error) {
	out, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isAWSNotFound(err) {
			return ObjectMeta{}, cerrors.NotFoundf("Head", bucket+"/"+key, err)
		}
		return ObjectMeta{}, cerrors.IOErrorf("Head", bucket+"/"+key, err)
	}
	meta := ObjectMeta{}
	if out.ContentLength != nil {
		meta.Size = *out.ContentLength
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}
	return meta, nil
}

func (c *AWSClient) Get(ctx context.Context, bucket, key string, offset, length int64) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}
	if offset != 0 || length >= 0 {
		rng := fmt.Sprintf("bytes=%d-", offset)
		if length >= 0 {
			rng = fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
		}
		input.Range = aws.String(rng)
	}
	out, err := c.client.GetObject(ctx, input)
	if err != nil {
		if isAWSNotFound(err) {
			return nil, cerrors.NotFoundf("Get", bucket+"/"+key, err)
		}
		return nil, cerrors.IOErrorf("Get", bucket+"/"+key, err)
	}
	return out.Body, nil
}

func (c *AWSClient) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return cerrors.IOErrorf("Put", bucket+"/"+key, err)
	}
	return nil
}

func (c *AWSClient) Delete(ctx context.Context, bucket, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isAWSNotFound(err) {
		return cerrors.IOErrorf("Delete", bucket+"/"+key, err)
	}
	return nil
}

func (c *AWSClient) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := c.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(srcBucket + "/" + srcKey),
	})
	if err != nil {
		if isAWSNotFound(err) {
			return cerrors.NotFoundf("Copy", srcBucket+"/"+srcKey, err)
		}
		return cerrors.IOErrorf("Copy", srcBucket+"/"+srcKey, err)
	}
	return nil
}

func (c *AWSClient) List(ctx context.Context, bucket, prefix, continuationToken string) (ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(ListPageSize),
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}
	out, err := c.client.ListObjectsV2(ctx, input)
	if err != nil {
		return ListPage{}, cerrors.IOErrorf("List", bucket+"/"+prefix, err)
	}
	page := ListPage{}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, ListedObject{
			Key:  aws.ToString(obj.Key),
			Size: aws.ToInt64(obj.Size),
		})
	}
	if aws.ToBool(out.IsTruncated) {
		page.ContinuationToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

func (c *AWSClient) CreateBucket(ctx context.Context, bucket string) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if !isAWSNotFound(err) {
		return cerrors.IOErrorf("CreateBucket", bucket, err)
	}
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}
	if _, err := c.client.CreateBucket(ctx, input); err != nil {
		return cerrors.IOErrorf("CreateBucket", bucket, err)
	}
	return nil
}

func isAWSNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404", "NoSuchBucket":
			return true
		}
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return true
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}
	return false
}

var _ Client = (*AWSClient)(nil)
