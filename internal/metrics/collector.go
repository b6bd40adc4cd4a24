package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Tier label values for cache metrics.
const (
	TierMemory = "memory"
	TierDisk   = "disk"
)

// Collector holds the loader's Prometheus metrics.
type Collector struct {
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	remoteLoads  prometheus.Counter
	loadErrors   prometheus.Counter
	loadDuration prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates a collector registering with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry in tests.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	return &Collector{
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bundle_cache_hits_total",
				Help:      "Bundle cache hits by tier",
			},
			[]string{"tier"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bundle_cache_misses_total",
				Help:      "Bundle cache misses by tier",
			},
			[]string{"tier"},
		),
		remoteLoads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bundle_remote_loads_total",
				Help:      "Bundles fetched from the remote store",
			},
		),
		loadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bundle_load_errors_total",
				Help:      "Failed bundle load attempts",
			},
		),
		loadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bundle_load_duration_seconds",
				Help:      "Duration of successful bundle loads",
				Buckets:   prometheus.DefBuckets,
			},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// RecordCacheHit increments the hit counter for a tier.
func (c *Collector) RecordCacheHit(tier string) {
	c.cacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss increments the miss counter for a tier.
func (c *Collector) RecordCacheMiss(tier string) {
	c.cacheMisses.WithLabelValues(tier).Inc()
}

// RecordRemoteLoad increments the remote load counter.
func (c *Collector) RecordRemoteLoad() {
	c.remoteLoads.Inc()
}

// RecordError increments the load error counter.
func (c *Collector) RecordError() {
	c.loadErrors.Inc()
}

// ObserveLoadDuration records the duration of a successful load.
func (c *Collector) ObserveLoadDuration(d time.Duration) {
	c.loadDuration.Observe(d.Seconds())
}
