// Package objstore defines the narrow object-store interface every cloud
// backend (AWS, GCP, Azure, or the in-memory fake) implements, plus the
// instrumented wrapper the environment router actually talks to.
package objstore

import (
	"context"
	"io"
	"time"
)

// ListPageSize is the page size the AWS, GCP and Azure backends' List uses,
// matching spec.md §4.9's pagination cadence (max_keys=50). FakeClient
// ignores it and returns every match in a single page.
const ListPageSize = 50

// ObjectMeta describes an object's Head response: size and last-modified
// time, the only two attributes the router's readable/writable file
// abstractions need.
type ObjectMeta struct {
	Size         int64
	LastModified time.Time
}

// ListedObject is a single entry returned by List.
type ListedObject struct {
	Key  string
	Size int64
}

// ListPage is one page of a List call. ContinuationToken is empty when
// there are no more pages.
type ListPage struct {
	Objects           []ListedObject
	ContinuationToken string
}

// Client is the capability every cloud backend provides. Bucket names are
// passed explicitly on every call rather than bound to the client, so a
// single client can serve both a destination and a source bucket.
//
// All methods return a *cerrors.Error; NotFound is the only Kind the
// router's fallback chain consumes, so backends must classify "missing
// object/bucket" responses into it precisely.
type Client interface {
	// Name identifies the backend for logging and metrics labels
	// ("aws", "gcp", "azure", "none").
	Name() string

	// Head returns size/mtime for bucket/key, or a NotFound error.
	Head(ctx context.Context, bucket, key string) (ObjectMeta, error)

	// Get returns a reader over byte range [offset, offset+length). A
	// length of -1 reads to the end of the object. The caller must Close
	// the returned reader.
	Get(ctx context.Context, bucket, key string, offset, length int64) (io.ReadCloser, error)

	// Put uploads the full contents of r, which must report exactly size
	// bytes, to bucket/key, overwriting any existing object.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error

	// Delete removes bucket/key. Deleting a missing object is not an
	// error (the router only calls Delete things it believes exist, but
	// backends must still tolerate races).
	Delete(ctx context.Context, bucket, key string) error

	// Copy copies srcBucket/srcKey to dstBucket/dstKey, preferably via a
	// server-side copy.
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error

	// List returns up to one page of objects under prefix, starting after
	// continuationToken (empty for the first page).
	List(ctx context.Context, bucket, prefix, continuationToken string) (ListPage, error)

	// CreateBucket creates bucket if it does not already exist. It must
	// not error when the bucket already exists and is owned by the
	// caller.
	CreateBucket(ctx context.Context, bucket string) error
}
