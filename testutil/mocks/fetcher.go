package mocks

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/BaSui01/bundleflow/fetch"
)

// MapFetcher serves bundle bytes from an in-memory map keyed by location.
// Unknown locations yield a 404-status FetchError. An optional Gate blocks
// every download until released, for exercising concurrent loads.
type MapFetcher struct {
	mu      sync.RWMutex
	bundles map[string][]byte
	calls   atomic.Int64

	// Gate, when non-nil, is received from before each download returns.
	Gate chan struct{}
}

var _ fetch.Fetcher = (*MapFetcher)(nil)

// NewMapFetcher creates a fetcher with no bundles.
func NewMapFetcher() *MapFetcher {
	return &MapFetcher{bundles: make(map[string][]byte)}
}

// Put registers bundle bytes under a location.
func (f *MapFetcher) Put(location string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bundles[location] = data
}

func (f *MapFetcher) Download(ctx context.Context, location string) ([]byte, error) {
	f.calls.Add(1)

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, &fetch.FetchError{Location: location, Err: ctx.Err()}
		}
	}

	f.mu.RLock()
	data, ok := f.bundles[location]
	f.mu.RUnlock()
	if !ok {
		return nil, &fetch.FetchError{Location: location, Status: http.StatusNotFound}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Calls returns how many downloads were attempted.
func (f *MapFetcher) Calls() int {
	return int(f.calls.Load())
}
