package llm

import "context"

// Request is one completion call
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Response is a completion plus usage details for logging
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider is a text completion backend
type Provider interface {
	Name() string
	DefaultModel() string

	// IsConfigured reports whether the provider has what it needs to be called
	IsConfigured() bool

	// Generate completes req with model, or DefaultModel when model is empty
	Generate(ctx context.Context, req Request, model string) (*Response, error)
}
