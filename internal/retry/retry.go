// Package retry implements the fixed-interval polling loop the streaming
// log cache reader uses while waiting for a record to become visible.
package retry

import (
	"context"
	"time"

	"github.com/lsmcloud/cloudenv/internal/cerrors"
)

// interval is the fixed delay between poll attempts.
const interval = 100 * time.Millisecond

// Poll calls fn repeatedly, sleeping interval between attempts, until fn
// returns a nil error, ctx is cancelled, or totalTimeout elapses since the
// first attempt. On timeout it returns a *cerrors.Error with Kind
// TimedOut wrapping fn's last error.
func Poll(ctx context.Context, op string, totalTimeout time.Duration, fn func() error) error {
	deadline := time.Now().Add(totalTimeout)
	var lastErr error
	for {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return cerrors.TimedOutf(op, "", lastErr)
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return cerrors.TimedOutf(op, "", ctx.Err())
		case <-timer.C:
		}
	}
}
