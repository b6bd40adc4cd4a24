package fetch

import (
	"context"
	"fmt"
)

// Fetcher downloads bundle bytes from a location URI.
type Fetcher interface {
	Download(ctx context.Context, location string) ([]byte, error)
}

// FetchError reports a failed download together with the transport status
// when the remote store responded at all (0 when it was unreachable).
type FetchError struct {
	Location string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Location, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
