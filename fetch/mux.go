package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// SchemeMux routes downloads to transport-specific fetchers by the
// location URI's scheme.
type SchemeMux struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

var _ Fetcher = (*SchemeMux)(nil)

// NewSchemeMux creates an empty mux.
func NewSchemeMux() *SchemeMux {
	return &SchemeMux{fetchers: make(map[string]Fetcher)}
}

// Register binds a fetcher to a URI scheme, replacing any previous binding.
func (m *SchemeMux) Register(scheme string, fetcher Fetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchers[scheme] = fetcher
}

// Download dispatches to the fetcher registered for the location's scheme.
func (m *SchemeMux) Download(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}

	m.mu.RLock()
	fetcher, ok := m.fetchers[u.Scheme]
	m.mu.RUnlock()

	if !ok {
		return nil, &FetchError{Location: location,
			Err: fmt.Errorf("no fetcher registered for scheme %q", u.Scheme)}
	}
	return fetcher.Download(ctx, location)
}
