package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. [%s] %s\n", i+1, err.Field, err.Message))
	}
	return b.String()
}

// Validate validates the complete configuration
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateVectorDB()...)
	errs = append(errs, c.validateRAG()...)
	errs = append(errs, c.validateLLM()...)
	errs = append(errs, c.validateSession()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateEmbedding() ValidationErrors {
	var errs ValidationErrors
	if c.Embedding.Provider == "" {
		errs = append(errs, ValidationError{
			Field:   "embedding.provider",
			Message: "embedding provider is required",
		})
	}
	if c.Embedding.Dimensions < 0 {
		errs = append(errs, ValidationError{
			Field:   "embedding.dimensions",
			Message: "embedding dimensions must be non-negative",
		})
	}
	return errs
}

func (c *Config) validateVectorDB() ValidationErrors {
	var errs ValidationErrors
	switch c.VectorDB.Provider {
	case "milvus":
		if c.VectorDB.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "vectordb.host",
				Message: "milvus host is required",
			})
		}
	case "memory":
	case "":
		errs = append(errs, ValidationError{
			Field:   "vectordb.provider",
			Message: "vectordb provider is required",
		})
	default:
		errs = append(errs, ValidationError{
			Field:   "vectordb.provider",
			Message: fmt.Sprintf("unsupported vectordb provider %q", c.VectorDB.Provider),
		})
	}
	if c.VectorDB.Collection == "" {
		errs = append(errs, ValidationError{
			Field:   "vectordb.collection",
			Message: "vectordb collection is required",
		})
	}
	return errs
}

func (c *Config) validateRAG() ValidationErrors {
	var errs ValidationErrors
	if c.RAG.TopKRetrieval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "rag.top_k_retrieval",
			Message: "top_k_retrieval must be positive",
		})
	}
	if c.RAG.TopKRerank <= 0 {
		errs = append(errs, ValidationError{
			Field:   "rag.top_k_rerank",
			Message: "top_k_rerank must be positive",
		})
	}
	if c.RAG.TopKRerank > c.RAG.TopKRetrieval {
		errs = append(errs, ValidationError{
			Field:   "rag.top_k_rerank",
			Message: "top_k_rerank must not exceed top_k_retrieval",
		})
	}
	if c.RAG.Splitter.ChunkOverlap >= c.RAG.Splitter.ChunkSize && c.RAG.Splitter.ChunkSize > 0 {
		errs = append(errs, ValidationError{
			Field:   "rag.splitter.chunk_overlap",
			Message: "chunk_overlap must be smaller than chunk_size",
		})
	}
	return errs
}

func (c *Config) validateLLM() ValidationErrors {
	var errs ValidationErrors
	if c.LLM.Provider != "" && c.LLM.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "llm.model",
			Message: "llm model is required when a provider is set",
		})
	}
	return errs
}

func (c *Config) validateSession() ValidationErrors {
	var errs ValidationErrors
	switch c.Session.Store {
	case "", "inmemory":
	case "redis":
		if c.Session.Redis.Address == "" {
			errs = append(errs, ValidationError{
				Field:   "session.redis.address",
				Message: "redis address is required for the redis session store",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "session.store",
			Message: fmt.Sprintf("unsupported session store %q", c.Session.Store),
		})
	}
	return errs
}
