package metrics

import "testing"

func TestMetricsRegistered(t *testing.T) {
	Register()
	Register() // idempotent

	ObjectStoreOpsTotal.WithLabelValues("Put", "aws", "true").Inc()
	ObjectStoreOpDuration.WithLabelValues("Put", "aws").Observe(0.01)
	ObjectStoreBytesTotal.WithLabelValues("Put", "aws").Add(4096)
	ObjectSizeBytes.WithLabelValues("Put").Observe(4096)
	DeletionQueueDepth.Set(3)
	DeletionsTotal.WithLabelValues("ok").Inc()
	ManifestWritesTotal.Inc()
	ManifestWriteDuration.Observe(0.02)
}
