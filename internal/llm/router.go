package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Router manages LLM providers and routing
type Router struct {
	providers       map[string]Provider
	defaultProvider string
	mu              sync.RWMutex
}

// NewRouter creates a new LLM router
func NewRouter(defaultProvider string) *Router {
	return &Router{
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
	}
}

// RegisterProvider registers an LLM provider
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// ListProviders returns configured provider names, sorted
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var providers []string
	for name, p := range r.providers {
		if p.IsConfigured() {
			providers = append(providers, name)
		}
	}
	sort.Strings(providers)
	return providers
}

// GetProvider returns a provider by name
func (r *Router) GetProvider(name string) (Provider, error) {
	if name == "" {
		name = r.defaultProvider
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}

	if !p.IsConfigured() {
		return nil, fmt.Errorf("provider not configured: %s", name)
	}

	return p, nil
}

// DefaultProvider returns the default provider name
func (r *Router) DefaultProvider() string {
	return r.defaultProvider
}

// SuggestTitle asks the default provider for a short title describing message
func (r *Router) SuggestTitle(ctx context.Context, message string) (string, error) {
	p, err := r.GetProvider("")
	if err != nil {
		return "", err
	}

	resp, err := p.Generate(ctx, Request{
		System:      TitleSystemPrompt,
		Prompt:      BuildTitlePrompt(message),
		Temperature: 0.3,
		MaxTokens:   64,
	}, "")
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Name(), err)
	}

	title := CleanTitle(resp.Text)
	if title == "" {
		return "", errors.New("provider returned an empty title")
	}

	log.Debug().
		Str("provider", p.Name()).
		Str("model", resp.Model).
		Int64("latency_ms", resp.LatencyMs).
		Msg("title generated")

	return title, nil
}
