package loader

import (
	"sync"
	"time"
)

// Stats is a snapshot of the loader's monotonically increasing counters.
type Stats struct {
	MemoryCacheHits   uint64 `json:"memory_cache_hits"`
	MemoryCacheMisses uint64 `json:"memory_cache_misses"`
	DiskCacheHits     uint64 `json:"disk_cache_hits"`
	DiskCacheMisses   uint64 `json:"disk_cache_misses"`
	RemoteLoads       uint64 `json:"remote_loads"`
	Errors            uint64 `json:"errors"`

	// AverageLoadTime is the running average over successful loads.
	AverageLoadTime time.Duration `json:"average_load_time_ns"`
}

// statsCounters is the shared mutable counter state. Counters only grow;
// Reset is the single exception, driven by explicit caller action.
type statsCounters struct {
	mu sync.Mutex

	memoryCacheHits   uint64
	memoryCacheMisses uint64
	diskCacheHits     uint64
	diskCacheMisses   uint64
	remoteLoads       uint64
	errors            uint64

	totalLoadTime time.Duration
	loadCount     uint64
}

func (s *statsCounters) incrMemoryHit() {
	s.mu.Lock()
	s.memoryCacheHits++
	s.mu.Unlock()
}

func (s *statsCounters) incrMemoryMiss() {
	s.mu.Lock()
	s.memoryCacheMisses++
	s.mu.Unlock()
}

func (s *statsCounters) incrDiskHit() {
	s.mu.Lock()
	s.diskCacheHits++
	s.mu.Unlock()
}

func (s *statsCounters) incrDiskMiss() {
	s.mu.Lock()
	s.diskCacheMisses++
	s.mu.Unlock()
}

func (s *statsCounters) incrRemoteLoad() {
	s.mu.Lock()
	s.remoteLoads++
	s.mu.Unlock()
}

func (s *statsCounters) incrError() {
	s.mu.Lock()
	s.errors++
	s.mu.Unlock()
}

func (s *statsCounters) recordLoadTime(d time.Duration) {
	s.mu.Lock()
	s.totalLoadTime += d
	s.loadCount++
	s.mu.Unlock()
}

func (s *statsCounters) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		MemoryCacheHits:   s.memoryCacheHits,
		MemoryCacheMisses: s.memoryCacheMisses,
		DiskCacheHits:     s.diskCacheHits,
		DiskCacheMisses:   s.diskCacheMisses,
		RemoteLoads:       s.remoteLoads,
		Errors:            s.errors,
	}
	if s.loadCount > 0 {
		stats.AverageLoadTime = s.totalLoadTime / time.Duration(s.loadCount)
	}
	return stats
}

func (s *statsCounters) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memoryCacheHits = 0
	s.memoryCacheMisses = 0
	s.diskCacheHits = 0
	s.diskCacheMisses = 0
	s.remoteLoads = 0
	s.errors = 0
	s.totalLoadTime = 0
	s.loadCount = 0
}
