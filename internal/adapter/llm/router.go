package llm

import (
	"context"
	"strings"

	"mockview/internal/domain"
)

// ModelRouter is a provider that dispatches each chat call to the
// registered backend matching the requested model family. Sessions can
// switch between vendors by changing only their model setting; unknown
// model names go to the registry default.
type ModelRouter struct {
	registry *Registry
}

// NewModelRouter creates a router over the registry.
func NewModelRouter(registry *Registry) *ModelRouter {
	return &ModelRouter{registry: registry}
}

func (r *ModelRouter) Name() string { return "router" }

func (r *ModelRouter) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	provider, err := r.registry.Get(providerForModel(req.Model))
	if err != nil {
		return nil, err
	}
	return provider.Chat(ctx, req)
}

// providerForModel maps a model name to its vendor's provider name.
func providerForModel(model string) string {
	switch {
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"):
		return "openai"
	default:
		return ""
	}
}

var _ domain.LLMProvider = (*ModelRouter)(nil)
