package llm

import (
	"context"
)

// Gateway adapts a Provider to the completion contract the conversation
// pipeline consumes: a single prompt in, free text out. Structured-output
// prompts benefit from a deterministic temperature, so the pipeline's
// gateway pins one value for every call.
type Gateway struct {
	provider    Provider
	temperature float64
}

// NewGateway wraps a provider for pipeline use
func NewGateway(provider Provider, temperature float64) *Gateway {
	return &Gateway{
		provider:    provider,
		temperature: temperature,
	}
}

// Generate sends one prompt to the underlying provider
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, prompt, WithTemperature(g.temperature))
}
