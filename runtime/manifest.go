package runtime

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Manifest is a declarative agent-behavior bundle.
// It is designed to be deserialized from YAML or JSON files.
type Manifest struct {
	// Identity
	Key         string `yaml:"key" json:"key"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Version     string `yaml:"version,omitempty" json:"version,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Behavior
	Model        string   `yaml:"model,omitempty" json:"model,omitempty"`
	SystemPrompt string   `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	Tools        []string `yaml:"tools,omitempty" json:"tools,omitempty"`
	Capabilities []string `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`

	// Default values for {{variable}} placeholders in the system prompt.
	// Invoke inputs override these.
	Variables map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`

	// Metadata
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// ManifestMaterializer materializes declarative manifest bundles.
// This is the default bundle format served by the remote store.
type ManifestMaterializer struct {
	logger *zap.Logger
}

var _ Materializer = (*ManifestMaterializer)(nil)

// NewManifestMaterializer creates a ManifestMaterializer.
func NewManifestMaterializer(logger *zap.Logger) *ManifestMaterializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManifestMaterializer{
		logger: logger.With(zap.String("component", "manifest_materializer")),
	}
}

// FromBytes parses and validates a manifest bundle.
func (m *ManifestMaterializer) FromBytes(ctx context.Context, data []byte) (Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: parse manifest: %v", ErrInvalidModule, err)
	}

	mod := &manifestModule{manifest: manifest}
	if err := validateModule(mod); err != nil {
		return nil, err
	}

	m.logger.Debug("manifest materialized",
		zap.String("key", manifest.Key),
		zap.String("version", manifest.Version))
	return mod, nil
}

// FromFile parses a manifest bundle already resident on disk.
func (m *ManifestMaterializer) FromFile(ctx context.Context, path string) (Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle file: %w", err)
	}
	return m.FromBytes(ctx, data)
}

// manifestModule is the Module backed by a parsed manifest.
// It is immutable after materialization.
type manifestModule struct {
	manifest Manifest
}

func (m *manifestModule) Describe() ModuleInfo {
	return ModuleInfo{
		Key:          m.manifest.Key,
		Version:      m.manifest.Version,
		Description:  m.manifest.Description,
		Capabilities: m.manifest.Capabilities,
		Metadata:     m.manifest.Metadata,
	}
}

// Invoke renders the behavior configuration for one request: the system
// prompt with {{variable}} placeholders substituted from input values,
// falling back to the manifest defaults.
func (m *manifestModule) Invoke(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt := m.manifest.SystemPrompt
	for name, def := range m.manifest.Variables {
		value := def
		if v, ok := input[name]; ok {
			value = fmt.Sprintf("%v", v)
		}
		prompt = strings.ReplaceAll(prompt, "{{"+name+"}}", value)
	}

	out := map[string]any{
		"key":    m.manifest.Key,
		"prompt": prompt,
	}
	if m.manifest.Model != "" {
		out["model"] = m.manifest.Model
	}
	if len(m.manifest.Tools) > 0 {
		out["tools"] = m.manifest.Tools
	}
	return out, nil
}
