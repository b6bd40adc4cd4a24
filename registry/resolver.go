package registry

import (
	"context"
	"errors"
)

// ErrPackageNotFound indicates the registry has no usable row for the key.
// This is a normal negative result, not an exceptional condition.
var ErrPackageNotFound = errors.New("package not found")

// PackageMetadata is the registry's current notion of a package: where its
// bundle lives and which checksum is latest. Checksum is optional metadata;
// empty means the registry does not track one for this package.
type PackageMetadata struct {
	Key            string `json:"key"`
	BundleLocation string `json:"bundle_location"`
	Checksum       string `json:"checksum,omitempty"`
}

// Resolver looks up package metadata by key. Implementations are read-only.
type Resolver interface {
	Resolve(ctx context.Context, key string) (*PackageMetadata, error)
}
