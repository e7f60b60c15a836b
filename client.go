package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/themonkai/scripture-rag/common/httpx"
	"github.com/themonkai/scripture-rag/composer"
	"github.com/themonkai/scripture-rag/config"
	"github.com/themonkai/scripture-rag/embedding"
	"github.com/themonkai/scripture-rag/glossary"
	"github.com/themonkai/scripture-rag/ingest"
	"github.com/themonkai/scripture-rag/llm"
	"github.com/themonkai/scripture-rag/rerank"
	"github.com/themonkai/scripture-rag/retriever"
	"github.com/themonkai/scripture-rag/schema"
	"github.com/themonkai/scripture-rag/textsplitter"
	"github.com/themonkai/scripture-rag/transcribe"
	"github.com/themonkai/scripture-rag/translate"
	"github.com/themonkai/scripture-rag/vectordb"
)

const maxListChunkRowCount = 1000

// Client bundles every collaborator behind the tool surface: the
// retrieval pipeline, the ingestion loader, and the session store.
type Client struct {
	config   *config.Config
	store    vectordb.VectorStoreProvider
	embed    embedding.Provider
	sessions SessionStore
	pipeline *Pipeline
	loader   *ingest.Loader
}

// NewClient wires the engine from configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	c := &Client{config: cfg}

	splitter, err := textsplitter.NewSplitter(cfg.RAG.Splitter)
	if err != nil {
		return nil, fmt.Errorf("create text splitter failed, err: %w", err)
	}

	c.embed, err = embedding.NewEmbeddingProvider(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider failed, err: %w", err)
	}

	c.store, err = vectordb.NewVectorDBProvider(&cfg.VectorDB, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("create vector store provider failed, err: %w", err)
	}

	llmProvider, err := llm.NewLLMProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm provider failed, err: %w", err)
	}

	httpClient := httpx.NewFromConfig(cfg.HTTP)

	var scorer rerank.Scorer
	if cfg.Rerank.Enable {
		scorer = rerank.NewModelScorer(cfg.Rerank, httpClient)
	}

	var translator translate.Translator
	if cfg.Translation.Enable && cfg.Translation.Endpoint != "" {
		translator = translate.NewHTTPTranslator(cfg.Translation, httpClient)
	}

	var explainer glossary.Explainer
	if cfg.Glossary.Enable {
		explainer = glossary.NewService(cfg.Glossary, llmProvider, httpClient)
	}

	var transcriber transcribe.Provider
	if cfg.Transcription.Provider != "" {
		transcriber, err = transcribe.NewTranscriptionProvider(cfg.Transcription)
		if err != nil {
			return nil, fmt.Errorf("create transcription provider failed, err: %w", err)
		}
	}

	c.sessions, err = newSessionStore(&cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("create session store failed, err: %w", err)
	}

	c.pipeline = &Pipeline{
		Retriever: &retriever.Stage{
			Embed:       c.embed,
			Store:       c.store,
			Scorer:      scorer,
			KCandidates: cfg.RAG.TopKRetrieval,
			KFinal:      cfg.RAG.TopKRerank,
			Threshold:   cfg.RAG.Threshold,
		},
		Composer: &composer.Composer{
			LLM:            llmProvider,
			Translator:     translator,
			Glossary:       explainer,
			FallbackAnswer: fallbackAnswer(cfg),
			TranslationOn:  translator != nil,
			GlossaryOn:     explainer != nil,
		},
		Transcriber:  transcriber,
		Sessions:     c.sessions,
		StageTimeout: time.Duration(cfg.RAG.StageTimeoutMs) * time.Millisecond,
		HistoryTurns: cfg.RAG.HistoryTurns,
	}

	c.loader = &ingest.Loader{
		Splitter:  splitter,
		Embed:     c.embed,
		Store:     c.store,
		BatchSize: cfg.Embedding.BatchSize,
	}
	return c, nil
}

func newSessionStore(cfg *config.SessionConfig) (SessionStore, error) {
	switch cfg.Store {
	case "", "inmemory":
		return NewMemSessionStore(cfg.MaxHistory), nil
	case "redis":
		return NewRedisSessionStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Store)
	}
}

func fallbackAnswer(cfg *config.Config) string {
	if cfg.RAG.FallbackAnswer != "" {
		return cfg.RAG.FallbackAnswer
	}
	return config.DefaultFallbackAnswer
}

// Query answers one text turn.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	return c.pipeline.Query(ctx, req)
}

// VoiceQuery answers one voice turn.
func (c *Client) VoiceQuery(ctx context.Context, req VoiceQueryRequest) (*QueryResponse, error) {
	return c.pipeline.VoiceQuery(ctx, req)
}

// IngestText splits, embeds, and stores one scripture text.
func (c *Client) IngestText(ctx context.Context, src ingest.Source) ([]string, error) {
	return c.loader.LoadText(ctx, src)
}

// SearchChunks runs a semantic search without answer generation.
func (c *Client) SearchChunks(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if topK <= 0 {
		topK = c.config.RAG.TopKRetrieval
	}
	vec, err := c.embed.GetEmbedding(ctx, query)
	if err != nil {
		return nil, schema.NewPipelineError(schema.ErrKindEmbedding, "search", err)
	}
	return c.store.SearchDocs(ctx, vec, &schema.SearchOptions{
		TopK:      topK,
		Threshold: c.config.RAG.Threshold,
	})
}

// ListChunks lists stored chunks up to limit.
func (c *Client) ListChunks(ctx context.Context, limit int) ([]schema.Document, error) {
	if limit <= 0 || limit > maxListChunkRowCount {
		limit = maxListChunkRowCount
	}
	return c.store.ListDocs(ctx, limit)
}

// DeleteChunks removes chunks by id.
func (c *Client) DeleteChunks(ctx context.Context, ids []string) error {
	return c.store.DeleteDocs(ctx, ids)
}

// Stats reports the corpus size.
func (c *Client) Stats(ctx context.Context) (schema.Stats, error) {
	return c.store.Stats(ctx)
}

// Sessions exposes the session store for history tools.
func (c *Client) Sessions() SessionStore { return c.sessions }

// Close releases the vector store and session store connections.
func (c *Client) Close() error {
	var first error
	if err := c.store.Close(); err != nil {
		first = err
	}
	if err := c.sessions.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
