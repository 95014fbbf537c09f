package search

import (
	"context"

	"mockview/internal/domain"
)

// NoopProvider returns no results. It is the default backend so the
// service runs without a SearXNG instance; the search agent degrades to
// skipping research when nothing comes back.
type NoopProvider struct{}

// NewNoopProvider creates a no-op search provider.
func NewNoopProvider() *NoopProvider { return &NoopProvider{} }

// Name implements domain.SearchProvider.
func (*NoopProvider) Name() string { return "noop" }

// Search implements domain.SearchProvider.
func (*NoopProvider) Search(_ context.Context, _ string, _ int) ([]domain.SearchResult, error) {
	return nil, nil
}

var _ domain.SearchProvider = (*NoopProvider)(nil)
