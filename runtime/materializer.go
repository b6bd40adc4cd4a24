package runtime

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidModule indicates that bundle bytes could not be turned into a
// module exposing the required capability surface.
var ErrInvalidModule = errors.New("invalid module bundle")

// IsInvalidModule reports whether err is an ErrInvalidModule.
func IsInvalidModule(err error) bool {
	return errors.Is(err, ErrInvalidModule)
}

// Materializer turns raw bundle bytes into an invocable Module.
//
// FromBytes is used for freshly downloaded bundles. FromFile is used when
// the bundle is already resident on disk (a disk-cache hit) and skips any
// intermediate write.
type Materializer interface {
	FromBytes(ctx context.Context, data []byte) (Module, error)
	FromFile(ctx context.Context, path string) (Module, error)
}

// validateModule checks the minimum capability surface after materialization.
func validateModule(m Module) error {
	if m == nil {
		return fmt.Errorf("%w: materializer returned nil module", ErrInvalidModule)
	}
	if m.Describe().Key == "" {
		return fmt.Errorf("%w: module reports no package key", ErrInvalidModule)
	}
	return nil
}
