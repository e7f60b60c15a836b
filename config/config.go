package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the scripture Q&A engine.
type Config struct {
	RAG           RAGConfig           `json:"rag" yaml:"rag"`
	LLM           LLMConfig           `json:"llm" yaml:"llm"`
	Embedding     EmbeddingConfig     `json:"embedding" yaml:"embedding"`
	VectorDB      VectorDBConfig      `json:"vectordb" yaml:"vectordb"`
	Rerank        RerankConfig        `json:"rerank" yaml:"rerank"`
	Translation   TranslationConfig   `json:"translation" yaml:"translation"`
	Transcription TranscriptionConfig `json:"transcription" yaml:"transcription"`
	Glossary      GlossaryConfig      `json:"glossary" yaml:"glossary"`
	Session       SessionConfig       `json:"session" yaml:"session"`
	// HTTP holds global defaults for outbound calls (reranker, translator,
	// glossary lookups).
	HTTP *HTTPClientConfig `json:"http,omitempty" yaml:"http,omitempty"`
}

// RAGConfig contains the retrieval pipeline knobs.
type RAGConfig struct {
	Splitter SplitterConfig `json:"splitter" yaml:"splitter"`
	// TopKRetrieval is the approximate-stage over-fetch size (k_candidates).
	TopKRetrieval int `json:"top_k_retrieval,omitempty" yaml:"top_k_retrieval,omitempty"`
	// TopKRerank is the final evidence size after reranking (k_final).
	TopKRerank int     `json:"top_k_rerank,omitempty" yaml:"top_k_rerank,omitempty"`
	Threshold  float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// FallbackAnswer is returned when retrieval yields no evidence.
	FallbackAnswer string `json:"fallback_answer,omitempty" yaml:"fallback_answer,omitempty"`
	// StageTimeoutMs bounds each pipeline stage; 0 disables the bound.
	StageTimeoutMs int `json:"stage_timeout_ms,omitempty" yaml:"stage_timeout_ms,omitempty"`
	// HistoryTurns is how many prior exchanges are folded into the prompt.
	HistoryTurns int `json:"history_turns,omitempty" yaml:"history_turns,omitempty"`
}

// SplitterConfig defines document splitter configuration.
type SplitterConfig struct {
	Provider     string `json:"provider" yaml:"provider"` // Available options: recursive, token
	ChunkSize    int    `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty" yaml:"chunk_overlap,omitempty"`
	// Encoding names the tiktoken encoding for the token splitter.
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
}

// LLMConfig defines configuration for the generation model.
type LLMConfig struct {
	Provider    string  `json:"provider" yaml:"provider"` // Available options: openai (any OpenAI-compatible endpoint)
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// EmbeddingConfig defines configuration for the embedding model.
type EmbeddingConfig struct {
	Provider   string `json:"provider" yaml:"provider"`
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	// BatchSize caps how many chunks go into one ingestion-time embed call.
	BatchSize int `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
}

// VectorDBConfig defines configuration for the vector index.
type VectorDBConfig struct {
	Provider   string `json:"provider" yaml:"provider"` // Available options: milvus, memory
	Host       string `json:"host,omitempty" yaml:"host,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	Database   string `json:"database,omitempty" yaml:"database,omitempty"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
	Username   string `json:"username,omitempty" yaml:"username,omitempty"`
	Password   string `json:"password,omitempty" yaml:"password,omitempty"`
	// MetricType selects the similarity metric, e.g. IP or L2.
	MetricType string `json:"metric_type,omitempty" yaml:"metric_type,omitempty"`
}

// RerankConfig points at the external cross-encoder scoring service.
type RerankConfig struct {
	Enable   bool   `json:"enable,omitempty" yaml:"enable,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// TranslationConfig controls the best-effort secondary-language translation.
type TranslationConfig struct {
	Enable     bool   `json:"enable,omitempty" yaml:"enable,omitempty"`
	Endpoint   string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	TargetLang string `json:"target_lang,omitempty" yaml:"target_lang,omitempty"`
}

// TranscriptionConfig controls the speech-to-text collaborator.
type TranscriptionConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
}

// GlossaryConfig controls beginner-mode keyword explanations.
type GlossaryConfig struct {
	Enable   bool   `json:"enable,omitempty" yaml:"enable,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// MaxTerms caps how many terms are extracted from one answer.
	MaxTerms int `json:"max_terms,omitempty" yaml:"max_terms,omitempty"`
}

// SessionConfig controls session persistence.
// Store: "inmemory" (default) or "redis".
type SessionConfig struct {
	Store      string      `json:"store,omitempty" yaml:"store,omitempty"`
	TTLSeconds int         `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	MaxHistory int         `json:"max_history,omitempty" yaml:"max_history,omitempty"`
	Redis      RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisConfig carries connection options for the Redis session store.
type RedisConfig struct {
	Address  string `json:"address,omitempty" yaml:"address,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
}

// HTTPClientConfig defines common options for outbound HTTP calls.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry                  int      `json:"retry,omitempty" yaml:"retry,omitempty"`
	BackoffMinMs           int      `json:"backoff_min_ms,omitempty" yaml:"backoff_min_ms,omitempty"`
	BackoffMaxMs           int      `json:"backoff_max_ms,omitempty" yaml:"backoff_max_ms,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
}

// DefaultFallbackAnswer is returned when the corpus holds nothing relevant.
const DefaultFallbackAnswer = "I could not find relevant information in the scriptures to answer your question."

// Default returns a configuration with the documented defaults applied.
func Default() *Config {
	return &Config{
		RAG: RAGConfig{
			Splitter: SplitterConfig{
				Provider:     "recursive",
				ChunkSize:    700,
				ChunkOverlap: 140,
			},
			TopKRetrieval:  15,
			TopKRerank:     3,
			FallbackAnswer: DefaultFallbackAnswer,
			HistoryTurns:   3,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.3,
			MaxTokens:   2048,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			BatchSize: 100,
		},
		VectorDB: VectorDBConfig{
			Provider:   "milvus",
			Collection: "hindu_scriptures",
			MetricType: "IP",
		},
		Translation: TranslationConfig{
			Enable:     true,
			TargetLang: "hi",
		},
		Transcription: TranscriptionConfig{
			Provider: "openai",
			Model:    "whisper-large-v3",
		},
		Glossary: GlossaryConfig{
			MaxTerms: 3,
		},
		Session: SessionConfig{
			Store:      "inmemory",
			TTLSeconds: 86400,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s failed, err: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s failed, err: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
