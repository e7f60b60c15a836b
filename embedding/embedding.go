package embedding

import (
	"context"
	"fmt"

	"github.com/themonkai/scripture-rag/config"
)

// Provider maps text to fixed-dimension dense vectors. Implementations are
// constructed once at startup and safe for concurrent use.
type Provider interface {
	// GetEmbedding embeds a single query or chunk.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	// GetEmbeddings embeds a batch; used by ingestion only.
	GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbeddingProvider builds a provider from configuration.
func NewEmbeddingProvider(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "dashscope", "groq":
		// All three speak the OpenAI embeddings API; they differ only in
		// base URL and credentials.
		return newOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
