package cloudenv

import (
	"context"
	"io"

	"github.com/lsmcloud/cloudenv/internal/cloudfile"
	"github.com/lsmcloud/cloudenv/internal/localfs"
)

// SequentialFile is returned by NewSequentialFile. It reads forward-only,
// the access pattern the engine uses for log replay and manifest scans.
type SequentialFile interface {
	Read(ctx context.Context, p []byte) (int, error)
	Skip(n int64) error
	Close() error
}

// RandomAccessFile is returned by NewRandomAccessFile. It supports
// concurrent positioned reads, the access pattern the engine uses for SST
// block fetches.
type RandomAccessFile interface {
	ReadAt(ctx context.Context, p []byte, offset int64) (int, error)
	Size() int64
	UniqueID() []byte
	Close() error
}

// localSequentialFile adapts localfs's plain io.ReadCloser to
// SequentialFile.
type localSequentialFile struct {
	f   io.ReadCloser
	pos int64
}

func newLocalSequentialFile(f io.ReadCloser) *localSequentialFile {
	return &localSequentialFile{f: f}
}

func (l *localSequentialFile) Read(_ context.Context, p []byte) (int, error) {
	n, err := l.f.Read(p)
	l.pos += int64(n)
	return n, err
}

func (l *localSequentialFile) Skip(n int64) error {
	buf := make([]byte, 32*1024)
	for n > 0 {
		chunk := n
		if chunk > int64(len(buf)) {
			chunk = int64(len(buf))
		}
		got, err := l.f.Read(buf[:chunk])
		n -= int64(got)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
	return nil
}

func (l *localSequentialFile) Close() error { return l.f.Close() }

// cloudSequentialFile adapts cloudfile.ReadableObject to SequentialFile.
type cloudSequentialFile struct {
	r *cloudfile.ReadableObject
}

func (c *cloudSequentialFile) Read(ctx context.Context, p []byte) (int, error) {
	return c.r.Read(ctx, p)
}

func (c *cloudSequentialFile) Skip(n int64) error {
	c.r.Skip(n)
	return nil
}

func (c *cloudSequentialFile) Close() error { return c.r.Close() }

// localRandomAccessFile adapts localfs.ReaderAt to RandomAccessFile.
type localRandomAccessFile struct {
	f        localfs.ReaderAt
	uniqueID []byte
}

func (l *localRandomAccessFile) ReadAt(_ context.Context, p []byte, offset int64) (int, error) {
	n, err := l.f.ReadAt(p, offset)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (l *localRandomAccessFile) Size() int64 {
	sz, err := l.f.Size()
	if err != nil {
		return 0
	}
	return sz
}

func (l *localRandomAccessFile) UniqueID() []byte { return l.uniqueID }

func (l *localRandomAccessFile) Close() error { return l.f.Close() }

// cloudRandomAccessFile adapts cloudfile.ReadableObject to RandomAccessFile.
type cloudRandomAccessFile struct {
	r *cloudfile.ReadableObject
}

func (c *cloudRandomAccessFile) ReadAt(ctx context.Context, p []byte, offset int64) (int, error) {
	return c.r.ReadAt(ctx, p, offset)
}

func (c *cloudRandomAccessFile) Size() int64      { return c.r.Size() }
func (c *cloudRandomAccessFile) UniqueID() []byte { return c.r.UniqueID() }
func (c *cloudRandomAccessFile) Close() error     { return c.r.Close() }

// WritableFile is returned by NewWritableFile.
type WritableFile interface {
	Append(p []byte) (int, error)
	Sync(ctx context.Context) error
	Close(ctx context.Context) error
}

// localWritableFile adapts localfs.WriteCloser to WritableFile.
type localWritableFile struct {
	f localfs.WriteCloser
}

func (l *localWritableFile) Append(p []byte) (int, error) { return l.f.Write(p) }
func (l *localWritableFile) Sync(context.Context) error   { return l.f.Sync() }
func (l *localWritableFile) Close(context.Context) error  { return l.f.Close() }

// cloudWritableFile adapts cloudfile.WritableObject to WritableFile.
type cloudWritableFile struct {
	w *cloudfile.WritableObject
}

func (c *cloudWritableFile) Append(p []byte) (int, error)   { return c.w.Append(p) }
func (c *cloudWritableFile) Sync(ctx context.Context) error { return c.w.Sync(ctx) }
func (c *cloudWritableFile) Close(ctx context.Context) error {
	return c.w.Close(ctx)
}

// streamWritableFile adapts the streaming-log tier's append path to
// WritableFile for LOG-role files when the log tier is enabled.
type streamWritableFile struct {
	log  interface {
		Append(ctx context.Context, name string, p []byte) error
		MarkClosed(ctx context.Context, name string) error
	}
	name string
}

func (s *streamWritableFile) Append(p []byte) (int, error) {
	if err := s.log.Append(context.Background(), s.name, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *streamWritableFile) Sync(context.Context) error { return nil }

func (s *streamWritableFile) Close(ctx context.Context) error {
	return s.log.MarkClosed(ctx, s.name)
}
