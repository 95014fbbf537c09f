package llm

import (
	"mockview/internal/domain"
)

// Registry holds the configured LLM providers keyed by name. Sessions
// pick a provider through their LLM settings; unknown names fall back to
// the default so a stale client config cannot strand a session.
type Registry struct {
	providers   map[string]domain.LLMProvider
	defaultName string
}

// NewRegistry creates an empty provider registry.
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		providers:   make(map[string]domain.LLMProvider),
		defaultName: defaultName,
	}
}

// Register adds a provider under its own name.
func (r *Registry) Register(p domain.LLMProvider) {
	r.providers[p.Name()] = p
}

// Get returns the provider by name, the default provider for unknown
// names, or ErrProviderNotFound when not even the default exists.
func (r *Registry) Get(name string) (domain.LLMProvider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	if p, ok := r.providers[r.defaultName]; ok {
		return p, nil
	}
	return nil, domain.NewDomainError("Registry.Get", domain.ErrProviderNotFound, name)
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
