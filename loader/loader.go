package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/bundleflow/cache"
	"github.com/BaSui01/bundleflow/fetch"
	"github.com/BaSui01/bundleflow/internal/metrics"
	"github.com/BaSui01/bundleflow/registry"
	"github.com/BaSui01/bundleflow/runtime"
)

const defaultPreloadConcurrency = 4

// Loader sequences the three cache tiers. It is safe for concurrent use by
// many request-handling workers; no tier lock is held while blocked on
// network or materialization I/O.
//
// Invalidation racing an in-flight load is resolved last-write-wins. A
// caller that needs "invalidate strictly precedes next load" must
// serialize that itself.
type Loader struct {
	resolver     registry.Resolver
	memory       *cache.MemoryCache
	disk         *cache.DiskCache
	fetcher      fetch.Fetcher
	materializer runtime.Materializer

	// group collapses concurrent loads of the same key into one remote
	// fetch (single-flight).
	group singleflight.Group

	stats              statsCounters
	metrics            *metrics.Collector
	tracer             trace.Tracer
	preloadConcurrency int
	logger             *zap.Logger
}

// New creates a Loader over the given tiers and collaborators.
func New(
	resolver registry.Resolver,
	memory *cache.MemoryCache,
	disk *cache.DiskCache,
	fetcher fetch.Fetcher,
	materializer runtime.Materializer,
	opts ...Option,
) (*Loader, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver must not be nil")
	}
	if memory == nil {
		return nil, fmt.Errorf("memory cache must not be nil")
	}
	if disk == nil {
		return nil, fmt.Errorf("disk cache must not be nil")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher must not be nil")
	}
	if materializer == nil {
		return nil, fmt.Errorf("materializer must not be nil")
	}

	l := &Loader{
		resolver:           resolver,
		memory:             memory,
		disk:               disk,
		fetcher:            fetcher,
		materializer:       materializer,
		tracer:             otel.Tracer("bundleflow/loader"),
		preloadConcurrency: defaultPreloadConcurrency,
		logger:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadPackage returns the module instance for key, consulting memory, then
// disk (checksum-gated against freshly resolved metadata), then the remote
// store, populating lower tiers on the way back.
//
// Memory hits are trusted without re-validating against the registry;
// staleness is corrected by the next load after an invalidation, not
// pushed proactively.
func (l *Loader) LoadPackage(ctx context.Context, key string) (runtime.Module, error) {
	ctx, span := l.tracer.Start(ctx, "loader.LoadPackage",
		trace.WithAttributes(attribute.String("bundle.key", key)))
	defer span.End()

	start := time.Now()

	if entry, ok := l.memory.Get(key); ok {
		l.stats.incrMemoryHit()
		l.stats.recordLoadTime(time.Since(start))
		if l.metrics != nil {
			l.metrics.RecordCacheHit(metrics.TierMemory)
			l.metrics.ObserveLoadDuration(time.Since(start))
		}
		span.SetAttributes(attribute.String("bundle.tier", "memory"))
		return entry.Module, nil
	}

	l.stats.incrMemoryMiss()
	if l.metrics != nil {
		l.metrics.RecordCacheMiss(metrics.TierMemory)
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		return l.loadSlow(ctx, key, start)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return v.(runtime.Module), nil
}

// loadSlow is the miss path: resolve metadata, consult disk, fall back to
// the remote store. Runs at most once per key at a time; concurrent
// callers share the result.
func (l *Loader) loadSlow(ctx context.Context, key string, start time.Time) (runtime.Module, error) {
	meta, err := l.resolver.Resolve(ctx, key)
	if err != nil {
		l.stats.incrError()
		if l.metrics != nil {
			l.metrics.RecordError()
		}
		l.logger.Warn("package metadata unavailable",
			zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("resolve %s: %w", key, err)
	}

	if mod, ok := l.loadFromDisk(ctx, key, meta); ok {
		l.stats.incrDiskHit()
		l.stats.recordLoadTime(time.Since(start))
		if l.metrics != nil {
			l.metrics.RecordCacheHit(metrics.TierDisk)
			l.metrics.ObserveLoadDuration(time.Since(start))
		}
		return mod, nil
	}

	l.stats.incrDiskMiss()
	if l.metrics != nil {
		l.metrics.RecordCacheMiss(metrics.TierDisk)
	}

	data, err := l.fetcher.Download(ctx, meta.BundleLocation)
	if err != nil {
		l.stats.incrError()
		if l.metrics != nil {
			l.metrics.RecordError()
		}
		l.logger.Error("remote fetch failed",
			zap.String("key", key),
			zap.String("location", meta.BundleLocation),
			zap.Error(err))
		return nil, fmt.Errorf("download %s: %w", key, err)
	}

	mod, err := l.materializer.FromBytes(ctx, data)
	if err != nil {
		l.stats.incrError()
		if l.metrics != nil {
			l.metrics.RecordError()
		}
		l.logger.Error("materialization failed",
			zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("materialize %s: %w", key, err)
	}

	checksum := meta.Checksum
	if checksum == "" {
		// Registry tracks no checksum for this package; give the disk
		// tier a stable content hash to compare against next time.
		checksum = contentChecksum(data)
	}

	if err := l.disk.Write(key, data, checksum); err != nil {
		// A failed disk write costs the durable copy, not the load.
		l.logger.Warn("disk cache write failed",
			zap.String("key", key), zap.Error(err))
	}
	l.memory.Set(key, mod, checksum)

	l.stats.incrRemoteLoad()
	l.stats.recordLoadTime(time.Since(start))
	if l.metrics != nil {
		l.metrics.RecordRemoteLoad()
		l.metrics.ObserveLoadDuration(time.Since(start))
	}

	l.logger.Info("package loaded from remote store",
		zap.String("key", key),
		zap.String("checksum", checksum),
		zap.Int("bytes", len(data)))
	return mod, nil
}

// loadFromDisk attempts a disk-tier hit. The stored entry is trusted only
// when its checksum matches the freshly resolved one, or when the registry
// reports no checksum at all. Any disk or materialization failure here is
// treated as a tier miss.
func (l *Loader) loadFromDisk(ctx context.Context, key string, meta *registry.PackageMetadata) (runtime.Module, bool) {
	entry, err := l.disk.Entry(key)
	if err != nil {
		if !cache.IsCacheMiss(err) {
			l.logger.Warn("disk cache read failed",
				zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	if meta.Checksum != "" && entry.Checksum != meta.Checksum {
		l.logger.Debug("disk entry stale",
			zap.String("key", key),
			zap.String("stored", entry.Checksum),
			zap.String("resolved", meta.Checksum))
		return nil, false
	}

	path, err := l.disk.Path(key)
	if err != nil {
		return nil, false
	}

	mod, err := l.materializer.FromFile(ctx, path)
	if err != nil {
		l.logger.Warn("disk entry failed to materialize, falling back to remote",
			zap.String("key", key), zap.Error(err))
		return nil, false
	}

	l.memory.Set(key, mod, entry.Checksum)
	return mod, true
}

// InvalidatePackage removes key from both local tiers. Invalidating a key
// with no cache entries is a no-op.
func (l *Loader) InvalidatePackage(key string) error {
	l.memory.Delete(key)
	if err := l.disk.Delete(key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	l.logger.Info("package invalidated", zap.String("key", key))
	return nil
}

// ClearCache empties both local tiers.
func (l *Loader) ClearCache() error {
	l.memory.Clear()
	if err := l.disk.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	l.logger.Info("package cache cleared")
	return nil
}

// PreloadResult aggregates the outcome of a preload pass.
type PreloadResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// PreloadPackages loads each key independently with bounded concurrency.
// Individual failures are tolerated and reported in the aggregate counts.
func (l *Loader) PreloadPackages(ctx context.Context, keys []string) PreloadResult {
	var succeeded, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(l.preloadConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			if _, err := l.LoadPackage(ctx, key); err != nil {
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	result := PreloadResult{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
	l.logger.Info("preload finished",
		zap.Int("requested", len(keys)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result
}

// Stats returns a snapshot of the loader counters.
func (l *Loader) Stats() Stats {
	return l.stats.snapshot()
}

// ResetStats zeroes all counters.
func (l *Loader) ResetStats() {
	l.stats.reset()
}

// CachedKeys returns the keys currently held in the memory tier.
func (l *Loader) CachedKeys() []string {
	return l.memory.Keys()
}

// MemoryCacheSize returns the number of entries in the memory tier.
func (l *Loader) MemoryCacheSize() int {
	return l.memory.Len()
}

// contentChecksum is the fallback hash persisted when the registry is
// silent about a package's checksum. It exists solely so the disk tier has
// something stable to compare against.
func contentChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
