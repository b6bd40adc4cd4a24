package runtime

import "context"

// ModuleInfo is the metadata a materialized module reports about itself.
// Key is mandatory: a module that cannot identify its package key is
// rejected during materialization.
type ModuleInfo struct {
	Key          string            `yaml:"key" json:"key"`
	Version      string            `yaml:"version,omitempty" json:"version,omitempty"`
	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	Capabilities []string          `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Metadata     map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Module is an invocable agent-behavior unit. Instances are immutable after
// materialization: a new key/checksum pair always produces a new instance.
type Module interface {
	// Describe returns the module's self-reported metadata.
	Describe() ModuleInfo
	// Invoke executes the module's behavior with the given input.
	Invoke(ctx context.Context, input map[string]any) (map[string]any, error)
}
