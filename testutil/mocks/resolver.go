package mocks

import (
	"context"
	"sync/atomic"

	"github.com/BaSui01/bundleflow/registry"
)

// CountingResolver wraps a Resolver and counts Resolve calls.
type CountingResolver struct {
	Inner registry.Resolver
	calls atomic.Int64
}

var _ registry.Resolver = (*CountingResolver)(nil)

// NewCountingResolver wraps inner.
func NewCountingResolver(inner registry.Resolver) *CountingResolver {
	return &CountingResolver{Inner: inner}
}

func (r *CountingResolver) Resolve(ctx context.Context, key string) (*registry.PackageMetadata, error) {
	r.calls.Add(1)
	return r.Inner.Resolve(ctx, key)
}

// Calls returns how many times Resolve was invoked.
func (r *CountingResolver) Calls() int {
	return int(r.calls.Load())
}
