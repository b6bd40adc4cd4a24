package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DiskEntry is the checksum sidecar stored next to each cached bundle.
type DiskEntry struct {
	Key       string    `json:"key"`
	Checksum  string    `json:"checksum"`
	WrittenAt time.Time `json:"written_at"`
}

// DiskCache is the durable tier: one raw-bytes bundle file per key plus a
// checksum sidecar, under a root directory that is safe to delete entirely.
// Entries survive process restarts.
type DiskCache struct {
	root   string
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewDiskCache creates a disk tier rooted at dir, creating it if missing.
func NewDiskCache(dir string, logger *zap.Logger) (*DiskCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiskCache{
		root:   dir,
		logger: logger.With(zap.String("component", "disk_cache")),
	}, nil
}

// Root returns the cache root directory.
func (c *DiskCache) Root() string {
	return c.root
}

// Path returns the bundle file path for key, or ErrCacheMiss.
func (c *DiskCache) Path(key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path := c.bundlePath(key)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("stat bundle: %w", err)
	}
	return path, nil
}

// Entry returns the sidecar record for key, or ErrCacheMiss. A sidecar
// without its bundle file counts as a miss.
func (c *DiskCache) Entry(key string) (DiskEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return DiskEntry{}, ErrCacheMiss
		}
		return DiskEntry{}, fmt.Errorf("read sidecar: %w", err)
	}

	var entry DiskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return DiskEntry{}, fmt.Errorf("decode sidecar: %w", err)
	}

	if _, err := os.Stat(c.bundlePath(key)); err != nil {
		return DiskEntry{}, ErrCacheMiss
	}
	return entry, nil
}

// Write stores bundle bytes and the checksum sidecar for key. Both files
// are written to a temp path and renamed into place so a concurrent reader
// never observes a half-written entry.
func (c *DiskCache) Write(key string, data []byte, checksum string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeAtomic(c.bundlePath(key), data, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}

	entry := DiskEntry{Key: key, Checksum: checksum, WrittenAt: time.Now()}
	meta, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := c.writeAtomic(c.metaPath(key), meta, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}

	c.logger.Debug("disk cache write",
		zap.String("key", key),
		zap.String("checksum", checksum),
		zap.Int("bytes", len(data)))
	return nil
}

// Delete removes the bundle and sidecar for key. Deleting an absent key is
// a no-op.
func (c *DiskCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, path := range []string{c.bundlePath(key), c.metaPath(key)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// Clear deletes every cached entry by recreating the root directory.
func (c *DiskCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.root); err != nil {
		return fmt.Errorf("remove cache dir: %w", err)
	}
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return fmt.Errorf("recreate cache dir: %w", err)
	}
	c.logger.Debug("disk cache cleared")
	return nil
}

func (c *DiskCache) writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(c.root, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		if werr != nil {
			return werr
		}
		return cerr
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// fileName hashes the key so arbitrary keys stay path-safe.
func fileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

func (c *DiskCache) bundlePath(key string) string {
	return filepath.Join(c.root, fileName(key)+".bundle")
}

func (c *DiskCache) metaPath(key string) string {
	return filepath.Join(c.root, fileName(key)+".meta.json")
}
