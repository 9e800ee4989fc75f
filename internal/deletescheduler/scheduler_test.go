package deletescheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lsmcloud/cloudenv/internal/objstore"
)

func TestEnqueueDeletesAfterDelay(t *testing.T) {
	ctx := context.Background()
	client := objstore.NewFakeClient()
	require.NoError(t, client.Put(ctx, "b", "k", strings.NewReader("x"), 1))

	sched := New(client, 30*time.Millisecond)
	sched.Start()
	defer sched.Shutdown()

	sched.Enqueue("b", "k")
	require.Equal(t, 1, sched.Depth())

	time.Sleep(10 * time.Millisecond)
	_, err := client.Head(ctx, "b", "k")
	require.NoError(t, err, "object must still exist before the delay elapses")

	require.Eventually(t, func() bool {
		_, err := client.Head(ctx, "b", "k")
		return err != nil
	}, 500*time.Millisecond, 5*time.Millisecond, "object must be deleted once the delay elapses")
}

func TestFIFOOrdering(t *testing.T) {
	ctx := context.Background()
	client := objstore.NewFakeClient()
	require.NoError(t, client.Put(ctx, "b", "a", strings.NewReader("x"), 1))
	require.NoError(t, client.Put(ctx, "b", "b", strings.NewReader("x"), 1))

	sched := New(client, 20*time.Millisecond)
	sched.Start()
	defer sched.Shutdown()

	sched.Enqueue("b", "a")
	sched.Enqueue("b", "b")

	require.Eventually(t, func() bool {
		return sched.Depth() == 0
	}, 500*time.Millisecond, 5*time.Millisecond)

	_, errA := client.Head(ctx, "b", "a")
	_, errB := client.Head(ctx, "b", "b")
	require.Error(t, errA)
	require.Error(t, errB)
}

func TestShutdownDoesNotDrainPending(t *testing.T) {
	ctx := context.Background()
	client := objstore.NewFakeClient()
	require.NoError(t, client.Put(ctx, "b", "k", strings.NewReader("x"), 1))

	sched := New(client, time.Hour)
	sched.Start()

	sched.Enqueue("b", "k")
	sched.Shutdown()

	_, err := client.Head(ctx, "b", "k")
	require.NoError(t, err, "shutdown must not delete items still waiting out their delay")
}

func TestMissingObjectDeleteIsIgnored(t *testing.T) {
	client := objstore.NewFakeClient()

	sched := New(client, 10*time.Millisecond)
	sched.Start()
	defer sched.Shutdown()

	sched.Enqueue("b", "never-existed")

	require.Eventually(t, func() bool {
		return sched.Depth() == 0
	}, 500*time.Millisecond, 5*time.Millisecond)
}
