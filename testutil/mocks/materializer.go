package mocks

import (
	"context"
	"fmt"

	"github.com/BaSui01/bundleflow/runtime"
)

// FailingMaterializer rejects every bundle. FailFromFileOnly restricts the
// failure to the disk-hit path so the remote fall-through can be observed.
type FailingMaterializer struct {
	Inner            runtime.Materializer
	FailFromFileOnly bool
}

var _ runtime.Materializer = (*FailingMaterializer)(nil)

func (m *FailingMaterializer) FromBytes(ctx context.Context, data []byte) (runtime.Module, error) {
	if m.FailFromFileOnly && m.Inner != nil {
		return m.Inner.FromBytes(ctx, data)
	}
	return nil, fmt.Errorf("%w: rejected by test materializer", runtime.ErrInvalidModule)
}

func (m *FailingMaterializer) FromFile(ctx context.Context, path string) (runtime.Module, error) {
	return nil, fmt.Errorf("%w: rejected by test materializer", runtime.ErrInvalidModule)
}
