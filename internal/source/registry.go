package source

import (
	"fmt"
	"log/slog"

	"SignalFeed/internal/config"
	"SignalFeed/internal/ports"
)

// Factory builds one adapter instance from its source configuration.
type Factory func(cfg config.SourceConfig, logger *slog.Logger) (ports.SourceAdapter, error)

// Registry keeps a mapping from adapter names to their factories. Source
// types stay pluggable through interface conformance; no hierarchy.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces an adapter factory.
func (r *Registry) Register(name string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[name] = factory
}

// Build assembles adapters for every configured source, preserving the
// configured order; an unknown adapter name fails assembly.
func (r *Registry) Build(configs []config.SourceConfig, logger *slog.Logger) ([]ports.SourceAdapter, error) {
	adapters := make([]ports.SourceAdapter, 0, len(configs))
	for _, cfg := range configs {
		factory, ok := r.factories[cfg.Adapter]
		if !ok {
			return nil, fmt.Errorf("source %s: adapter %q is not registered", cfg.Name, cfg.Adapter)
		}

		adapter, err := factory(cfg, logger.With("component", "source."+cfg.Name))
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}
