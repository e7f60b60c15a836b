package vectordb

import (
	"context"
	"fmt"

	"github.com/themonkai/scripture-rag/config"
	"github.com/themonkai/scripture-rag/schema"
)

// VectorStoreProvider is the persistent (vector, text, metadata) index.
// Implementations are process-wide, initialized once, and safe for
// concurrent read access.
type VectorStoreProvider interface {
	AddDocs(ctx context.Context, docs []schema.Document) error
	// SearchDocs returns the approximate top-k candidates for a query
	// vector, best first. A store holding fewer than k documents returns
	// all of them.
	SearchDocs(ctx context.Context, vector []float32, opts *schema.SearchOptions) ([]schema.SearchResult, error)
	ListDocs(ctx context.Context, limit int) ([]schema.Document, error)
	DeleteDocs(ctx context.Context, ids []string) error
	Stats(ctx context.Context) (schema.Stats, error)
	Close() error
}

// NewVectorDBProvider builds a provider from configuration. dim is the
// embedding dimensionality used when the collection must be created.
func NewVectorDBProvider(cfg *config.VectorDBConfig, dim int) (VectorStoreProvider, error) {
	switch cfg.Provider {
	case "milvus":
		return newMilvusProvider(cfg, dim)
	case "memory":
		return NewMemoryProvider(cfg.Collection), nil
	default:
		return nil, fmt.Errorf("unsupported vectordb provider: %s", cfg.Provider)
	}
}
