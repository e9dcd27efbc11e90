// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides the text-generation capability the pipelines depend
// on. This is the only boundary where nondeterminism and external-service
// failure enter the system; callers treat every error as an ordinary
// failure outcome, never as something to unwind past a component boundary.
//
// Implementations may include:
//   - OpenAI (GPT-4, GPT-3.5)
//   - Anthropic (Claude)
//   - Ollama (local models)
//   - LM Studio or other OpenAI-compatible servers
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
