package objstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

type fakeObject struct {
	data  []byte
	mtime time.Time
}

// FakeClient is an in-memory Client backing cloud_type=None and every
// test in this module that does not need to exercise a real SDK. Objects
// are keyed by "bucket/key"; CreateBucket is a no-op since buckets are not
// separately tracked.
type FakeClient struct {
	mu      sync.RWMutex
	objects map[string]fakeObject
}

// NewFakeClient returns an empty in-memory backend.
func NewFakeClient() *FakeClient {
	return &FakeClient{objects: make(map[string]fakeObject)}
}

func fakeKey(bucket, key string) string { return bucket + "/" + key }

func (f *FakeClient) Name() string { return "none" }

func (f *FakeClient) Head(_ context.Context, bucket, key string) (ObjectMeta, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	obj, ok := f.objects[fakeKey(bucket, key)]
	if !ok {
		return ObjectMeta{}, cerrors.NotFoundf("Head", bucket+"/"+key, nil)
	}
	return ObjectMeta{Size: int64(len(obj.data)), LastModified: obj.mtime}, nil
}

func (f *FakeClient) Get(_ context.Context, bucket, key string, offset, length int64) (io.ReadCloser, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	obj, ok := f.objects[fakeKey(bucket, key)]
	if !ok {
		return nil, cerrors.NotFoundf("Get", bucket+"/"+key, nil)
	}
	data := obj.data
	if offset < 0 || offset > int64(len(data)) {
		return nil, cerrors.IOErrorf("Get", bucket+"/"+key, nil)
	}
	end := int64(len(data))
	if length >= 0 && offset+length < end {
		end = offset + length
	}
	return io.NopCloser(bytes.NewReader(data[offset:end])), nil
}

func (f *FakeClient) Put(_ context.Context, bucket, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return cerrors.IOErrorf("Put", bucket+"/"+key, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[fakeKey(bucket, key)] = fakeObject{data: data, mtime: time.Now()}
	return nil
}

func (f *FakeClient) Delete(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, fakeKey(bucket, key))
	return nil
}

func (f *FakeClient) Copy(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[fakeKey(srcBucket, srcKey)]
	if !ok {
		return cerrors.NotFoundf("Copy", srcBucket+"/"+srcKey, nil)
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	f.objects[fakeKey(dstBucket, dstKey)] = fakeObject{data: cp, mtime: time.Now()}
	return nil
}

func (f *FakeClient) List(_ context.Context, bucket, prefix, _ string) (ListPage, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fullPrefix := fakeKey(bucket, prefix)
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, fullPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	page := ListPage{}
	for _, k := range keys {
		name := strings.TrimPrefix(k, bucket+"/")
		page.Objects = append(page.Objects, ListedObject{Key: name, Size: int64(len(f.objects[k].data))})
	}
	return page, nil
}

func (f *FakeClient) CreateBucket(_ context.Context, _ string) error { return nil }

var _ Client = (*FakeClient)(nil)
