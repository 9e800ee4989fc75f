// Package metrics defines the Prometheus collectors backing the optional
// statistics sink referenced in the environment's configuration.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// registerOnce ensures Register() is idempotent.
var registerOnce sync.Once

// sizeBuckets are exponential buckets for object size histograms (bytes).
var sizeBuckets = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216, 67108864}

// Object store metrics, labeled by op (Head/Get/Put/Delete/Copy/List/
// CreateBucket) and backend (aws/gcp/azure/none).
var (
	ObjectStoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudenv_objectstore_ops_total",
			Help: "Total object store operations by op, backend, and outcome",
		},
		[]string{"op", "backend", "ok"},
	)

	ObjectStoreOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudenv_objectstore_op_duration_seconds",
			Help:    "Object store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "backend"},
	)

	ObjectStoreBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudenv_objectstore_bytes_total",
			Help: "Total bytes moved through the object store, by op and backend",
		},
		[]string{"op", "backend"},
	)
)

// Deletion scheduler metrics.
var (
	DeletionQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudenv_deletion_queue_depth",
			Help: "Number of files queued for deferred destination-bucket deletion",
		},
	)

	DeletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudenv_deletions_total",
			Help: "Total deferred deletions processed, by result",
		},
		[]string{"result"},
	)
)

// Manifest durability metrics, mirroring NUMBER_MANIFEST_WRITES / MANIFEST_WRITES_TIME.
var (
	ManifestWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudenv_manifest_writes_total",
			Help: "Total manifest durability uploads performed",
		},
	)

	ManifestWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cloudenv_manifest_write_duration_seconds",
			Help:    "Manifest durability upload latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ObjectSizeBytes is exposed for completeness (upload/download sizes);
	// it reuses the same exponential buckets the teacher used for HTTP
	// body sizes, applied here to object payload sizes instead.
	ObjectSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudenv_object_size_bytes",
			Help:    "Size distribution of objects read or written",
			Buckets: sizeBuckets,
		},
		[]string{"op"},
	)
)

// Register registers all collectors with the default registry. Safe to call
// multiple times; subsequent calls are no-ops. Callers that don't want
// Prometheus wiring simply never call this — the collectors still work as
// plain counters/histograms in process memory.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ObjectStoreOpsTotal,
			ObjectStoreOpDuration,
			ObjectStoreBytesTotal,
			DeletionQueueDepth,
			DeletionsTotal,
			ManifestWritesTotal,
			ManifestWriteDuration,
			ObjectSizeBytes,
		)
	})
}
