package llm

import (
	"context"
	"fmt"

	"github.com/themonkai/scripture-rag/config"
)

// Provider is the generation model behind answer composition.
type Provider interface {
	// GenerateCompletion sends one user prompt under the standing system
	// prompt and returns the model's text.
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// NewLLMProvider builds a provider from configuration.
func NewLLMProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "groq", "dashscope":
		// All OpenAI-compatible chat completion endpoints.
		return newOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
