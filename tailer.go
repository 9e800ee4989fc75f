package cloudenv

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

// logTailer is the streaming-log tailer thread component from spec.md §5:
// a single background subsystem, started when the environment is
// constructed with keep_local_log_files=false and joined in Close, that
// drains each LOG stream the router opens for writing into the streaming
// log's local cache directory so that NewSequentialFile/NewRandomAccessFile
// readers (which poll that cache directory via the retry driver) eventually
// see the data land.
//
// The capability's per-name TailStream call is the network-facing
// primitive; logTailer supervises one such tail per open stream under a
// single shared context, so one shutdown call stops them all.
type logTailer struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	watched map[string]bool
}

// start launches the tailer subsystem. Calling it twice on the same
// instance returns Busy, matching spec.md §7's "duplicate tailer start".
func (t *logTailer) start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return cerrors.Busyf("startLogTailer", "", nil)
	}
	t.started = true
	t.watched = make(map[string]bool)
	t.ctx, t.cancel = context.WithCancel(context.Background())
	return nil
}

// watchLogStream begins tailing name into the capability's cache
// directory, unless it is already being watched. It is a no-op if the
// tailer was never started (i.e. keep_local_log_files is true).
func (e *Environment) watchLogStream(name string) {
	t := e.tailer
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.started || t.watched[name] {
		t.mu.Unlock()
		return
	}
	t.watched[name] = true
	ctx := t.ctx
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		e.tailLogStream(ctx, name)
	}()
}

func (e *Environment) tailLogStream(ctx context.Context, name string) {
	rc, err := e.streamlog.TailStream(ctx, name, 0)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("cloudenv: failed to open log stream tail", "name", name, "err", err)
		}
		return
	}
	defer rc.Close()

	cachePath := e.streamlog.CacheDir() + "/" + name
	out, err := e.fs.Create(cachePath)
	if err != nil {
		slog.Warn("cloudenv: failed to create log stream cache file", "name", name, "err", err)
		return
	}
	defer out.Close()

	buf := make([]byte, 32*1024)
	for {
		n, rerr := rc.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				slog.Warn("cloudenv: failed to write log stream cache file", "name", name, "err", werr)
				return
			}
			if serr := out.Sync(); serr != nil {
				slog.Warn("cloudenv: failed to sync log stream cache file", "name", name, "err", serr)
				return
			}
		}
		if rerr != nil {
			if rerr != io.EOF && ctx.Err() == nil {
				slog.Warn("cloudenv: log stream tail ended with error", "name", name, "err", rerr)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// shutdown cancels every outstanding tail and waits for them to exit.
func (t *logTailer) shutdown() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}
