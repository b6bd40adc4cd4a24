package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"plugin"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewModuleSymbol is the constructor symbol a compiled plugin bundle must export.
const NewModuleSymbol = "NewModule"

// PluginMaterializer materializes compiled Go plugin (.so) bundles.
//
// The plugin loader resolves shared dependencies relative to the file it
// opens, so bytes cannot be loaded directly from memory: FromBytes writes
// them to a uniquely named file inside libDir (a directory the host's
// dependency resolver already searches), opens the plugin from there, and
// removes the transient file afterwards on both success and failure paths.
type PluginMaterializer struct {
	libDir string
	logger *zap.Logger
}

var _ Materializer = (*PluginMaterializer)(nil)

// NewPluginMaterializer creates a PluginMaterializer writing transient
// artifacts into libDir. The directory is created if missing.
func NewPluginMaterializer(libDir string, logger *zap.Logger) (*PluginMaterializer, error) {
	if libDir == "" {
		return nil, fmt.Errorf("lib dir must not be empty")
	}
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lib dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginMaterializer{
		libDir: libDir,
		logger: logger.With(zap.String("component", "plugin_materializer")),
	}, nil
}

// FromBytes writes the bundle to a transient .so file and loads it.
func (m *PluginMaterializer) FromBytes(ctx context.Context, data []byte) (Module, error) {
	path := filepath.Join(m.libDir, "bundle-"+uuid.NewString()+".so")
	if err := os.WriteFile(path, data, 0o755); err != nil {
		return nil, fmt.Errorf("write transient bundle: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			m.logger.Warn("failed to remove transient bundle",
				zap.String("path", path), zap.Error(err))
		}
	}()

	return m.FromFile(ctx, path)
}

// FromFile loads a plugin bundle already resident on disk.
func (m *PluginMaterializer) FromFile(ctx context.Context, path string) (Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open plugin: %v", ErrInvalidModule, err)
	}

	sym, err := p.Lookup(NewModuleSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s symbol", ErrInvalidModule, NewModuleSymbol)
	}

	ctor, ok := sym.(func() (Module, error))
	if !ok {
		return nil, fmt.Errorf("%w: %s has wrong signature %T", ErrInvalidModule, NewModuleSymbol, sym)
	}

	mod, err := ctor()
	if err != nil {
		return nil, fmt.Errorf("%w: construct module: %v", ErrInvalidModule, err)
	}
	if err := validateModule(mod); err != nil {
		return nil, err
	}

	m.logger.Debug("plugin materialized",
		zap.String("path", path),
		zap.String("key", mod.Describe().Key))
	return mod, nil
}
