package cache

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/bundleflow/runtime"
)

// MemoryEntry is one loaded module held in the memory tier together with
// the checksum it was loaded under.
type MemoryEntry struct {
	Module     runtime.Module
	Checksum   string
	InsertedAt time.Time
}

// MemoryCache is the process-local tier mapping package key to a loaded
// module instance. Entries live until explicit invalidation or process
// exit; there is no TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]MemoryEntry
	logger  *zap.Logger
}

// NewMemoryCache creates an empty memory tier.
func NewMemoryCache(logger *zap.Logger) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCache{
		entries: make(map[string]MemoryEntry),
		logger:  logger.With(zap.String("component", "memory_cache")),
	}
}

// Get returns the entry for key, if present.
func (c *MemoryCache) Get(key string) (MemoryEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Set stores a module under key. The last write for a key wins.
func (c *MemoryCache) Set(key string, module runtime.Module, checksum string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = MemoryEntry{
		Module:     module,
		Checksum:   checksum,
		InsertedAt: time.Now(),
	}
	c.logger.Debug("memory cache set",
		zap.String("key", key),
		zap.String("checksum", checksum))
}

// Delete removes the entry for key. Deleting an absent key is a no-op.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Keys returns all cached keys sorted.
func (c *MemoryCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]MemoryEntry)
	c.logger.Debug("memory cache cleared")
}
