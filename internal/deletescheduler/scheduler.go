// Package deletescheduler defers destination-bucket object deletions by a
// fixed delay so that a reader which opened a file moments before it was
// logically deleted still has time to finish using it.
package deletescheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
	"github.com/lsmcloud/cloudenv/internal/metrics"
	"github.com/lsmcloud/cloudenv/internal/objstore"
)

// item is one pending deletion: the bucket/key to delete and the instant
// it was enqueued. The delay is measured from EnqueuedAt, not from when
// the worker goroutine gets around to it.
type item struct {
	id         string
	bucket     string
	key        string
	enqueuedAt time.Time
}

// Scheduler runs a single background goroutine draining a FIFO queue of
// deferred deletions. Enqueue is non-blocking. Shutdown stops the worker
// immediately without draining any items still waiting out their delay —
// those deletions are simply abandoned, matching the original
// implementation's behavior of not blocking process exit on pending
// purges.
type Scheduler struct {
	client objstore.Client
	delay  time.Duration

	mu      sync.Mutex
	queue   []item
	notify  chan struct{}
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// New creates a Scheduler that deletes from client after a fixed delay.
func New(client objstore.Client, delay time.Duration) *Scheduler {
	return &Scheduler{
		client: client,
		delay:  delay,
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.run()
}

// Enqueue schedules bucket/key for deletion after the configured delay,
// measured from this call.
func (s *Scheduler) Enqueue(bucket, key string) {
	s.mu.Lock()
	s.queue = append(s.queue, item{
		id:         uuid.NewString(),
		bucket:     bucket,
		key:        key,
		enqueuedAt: time.Now(),
	})
	depth := len(s.queue)
	s.mu.Unlock()

	metrics.DeletionQueueDepth.Set(float64(depth))

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Shutdown stops the worker goroutine immediately. Any items still
// waiting out their delay are dropped, not deleted. Safe to call once;
// a second call panics (it closes an already-closed channel) and is a
// misuse this package doesn't guard against, matching the one-shot lifecycle of the environment it serves.
func (s *Scheduler) Shutdown() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		var next *item
		if len(s.queue) > 0 {
			next = &s.queue[0]
		}
		s.mu.Unlock()

		if next == nil {
			select {
			case <-s.stop:
				return
			case <-s.notify:
				continue
			}
		}

		wait := time.Until(next.enqueuedAt.Add(s.delay))
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			s.popAndDelete()
		case <-s.notify:
			timer.Stop()
		}
	}
}

func (s *Scheduler) popAndDelete() {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	it := s.queue[0]
	s.queue = s.queue[1:]
	depth := len(s.queue)
	s.mu.Unlock()

	metrics.DeletionQueueDepth.Set(float64(depth))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.client.Delete(ctx, it.bucket, it.key)
	result := "ok"
	if err != nil && !cerrors.IsNotFound(err) {
		result = "error"
		slog.Warn("deletescheduler: deferred delete failed", "id", it.id, "bucket", it.bucket, "key", it.key, "err", err)
	}
	metrics.DeletionsTotal.WithLabelValues(result).Inc()
}

// Depth reports the number of items currently waiting (for tests).
func (s *Scheduler) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
