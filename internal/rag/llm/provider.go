package llm

import "context"

// Provider answers a fully rendered prompt. Implementations do not retry.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
