package registry

import (
	"context"
	"fmt"
	"sync"
)

// StaticResolver is an in-memory Resolver for embedding and tests.
type StaticResolver struct {
	mu       sync.RWMutex
	packages map[string]PackageMetadata
}

var _ Resolver = (*StaticResolver)(nil)

// NewStaticResolver creates a resolver preloaded with the given metadata.
func NewStaticResolver(packages ...PackageMetadata) *StaticResolver {
	r := &StaticResolver{packages: make(map[string]PackageMetadata, len(packages))}
	for _, p := range packages {
		r.packages[p.Key] = p
	}
	return r
}

// Set adds or replaces the metadata for a key.
func (r *StaticResolver) Set(meta PackageMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[meta.Key] = meta
}

// Remove drops the metadata for a key.
func (r *StaticResolver) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.packages, key)
}

// Resolve returns the stored metadata for key.
func (r *StaticResolver) Resolve(ctx context.Context, key string) (*PackageMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.packages[key]
	if !ok || meta.BundleLocation == "" {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, key)
	}
	out := meta
	return &out, nil
}
