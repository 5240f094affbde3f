package driven

import (
	"context"
	"time"
)

// LLMService provides language model operations for query rewriting,
// answer generation and judge scoring.
//
// Implementations may include:
//   - Groq (OpenAI-compatible API)
//   - OpenAI (GPT-4o family)
//   - Ollama (local models)
type LLMService interface {
	// Complete produces a text completion from a single prompt within
	// the bounded timeout carried in opts.
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// Chat conducts a system + user exchange. Used when a system prompt
	// must be pinned separately from the user content.
	Chat(ctx context.Context, system, user string, opts CompleteOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompleteOptions configures one generation call.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// Timeout bounds the call. Zero means the adapter default.
	Timeout time.Duration
}
