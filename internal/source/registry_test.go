package source

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFeed/internal/config"
	"SignalFeed/internal/domain"
	"SignalFeed/internal/ports"
)

type stubAdapter struct {
	name string
}

func (s *stubAdapter) Name() string            { return s.name }
func (s *stubAdapter) Type() domain.SourceType { return domain.SourcePaper }
func (s *stubAdapter) FetchRecent(context.Context) ([]domain.RawRecord, error) {
	return nil, nil
}

func TestRegistryBuildsConfiguredOrder(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register("stub", func(cfg config.SourceConfig, _ *slog.Logger) (ports.SourceAdapter, error) {
		return &stubAdapter{name: cfg.Name}, nil
	})

	adapters, err := registry.Build([]config.SourceConfig{
		{Name: "first", Adapter: "stub"},
		{Name: "second", Adapter: "stub"},
	}, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	require.NoError(t, err)
	require.Len(t, adapters, 2)
	assert.Equal(t, "first", adapters[0].Name())
	assert.Equal(t, "second", adapters[1].Name())
}

func TestRegistryUnknownAdapter(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	_, err := registry.Build([]config.SourceConfig{
		{Name: "mystery", Adapter: "nope"},
	}, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}
