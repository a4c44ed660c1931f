// Package config provides configuration loading for charityd.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/charityd/internal/chunking"
	"github.com/fyrsmithlabs/charityd/internal/retriever"
)

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	LLM         LLMConfig         `koanf:"llm"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Chunking    ChunkingConfig    `koanf:"chunking"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Context     ContextConfig     `koanf:"context"`
	Session     SessionConfig     `koanf:"session"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	Provider    string  `koanf:"provider"`
	Model       string  `koanf:"model"`
	APIKey      string  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	Provider string        `koanf:"provider"`
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig configures the embedded chromem-go backend.
type ChromemConfig struct {
	Path              string `koanf:"path"`
	Compress          bool   `koanf:"compress"`
	DefaultCollection string `koanf:"default_collection"`
}

// QdrantConfig configures the external Qdrant backend.
type QdrantConfig struct {
	Host              string `koanf:"host"`
	Port              int    `koanf:"port"`
	UseTLS            bool   `koanf:"use_tls"`
	DefaultCollection string `koanf:"default_collection"`
}

// ChunkingConfig configures document chunking.
type ChunkingConfig struct {
	ChunkSize    int    `koanf:"chunk_size"`
	Overlap      int    `koanf:"overlap"`
	Strategy     string `koanf:"strategy"`
	MinChunkSize int    `koanf:"min_chunk_size"`
}

// RetrievalConfig configures semantic retrieval. SimilarityThreshold is a
// pointer so an explicit zero survives defaulting; cosine similarity makes
// zero (and negative values) meaningful thresholds.
type RetrievalConfig struct {
	TopK                int      `koanf:"top_k"`
	SimilarityThreshold *float32 `koanf:"similarity_threshold"`
	Reranker            string   `koanf:"reranker"`
	Rerank              bool     `koanf:"rerank"`
	Debug               bool     `koanf:"debug"`
}

// ContextConfig configures context assembly.
type ContextConfig struct {
	MaxTokens      int  `koanf:"max_tokens"`
	IncludeSources bool `koanf:"include_sources"`
}

// SessionConfig configures conversation history.
type SessionConfig struct {
	MaxHistory int `koanf:"max_history"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "openai"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Chromem.Path == "" {
		cfg.VectorStore.Chromem.Path = "~/.config/charityd/vectorstore"
	}
	if cfg.VectorStore.Chromem.DefaultCollection == "" {
		cfg.VectorStore.Chromem.DefaultCollection = "charityd_default"
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}
	if cfg.VectorStore.Qdrant.DefaultCollection == "" {
		cfg.VectorStore.Qdrant.DefaultCollection = "charityd_default"
	}

	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 512
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 50
	}
	if cfg.Chunking.Strategy == "" {
		cfg.Chunking.Strategy = string(chunking.StrategySemantic)
	}
	if cfg.Chunking.MinChunkSize == 0 {
		cfg.Chunking.MinChunkSize = 100
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SimilarityThreshold == nil {
		threshold := retriever.DefaultSimilarityThreshold
		cfg.Retrieval.SimilarityThreshold = &threshold
	}
	if cfg.Retrieval.Reranker == "" {
		cfg.Retrieval.Reranker = "similarity"
	}

	if cfg.Context.MaxTokens == 0 {
		cfg.Context.MaxTokens = 2000
	}

	if cfg.Session.MaxHistory == 0 {
		cfg.Session.MaxHistory = 20
	}
}

// Validate checks cross-field configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if !chunking.Strategy(c.Chunking.Strategy).Valid() {
		return fmt.Errorf("invalid chunking strategy: %s", c.Chunking.Strategy)
	}
	if c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking overlap %d must be less than chunk size %d", c.Chunking.Overlap, c.Chunking.ChunkSize)
	}
	if c.Retrieval.SimilarityThreshold != nil {
		if t := *c.Retrieval.SimilarityThreshold; t < -1 || t > 1 {
			return fmt.Errorf("similarity threshold must be in [-1, 1], got %v", t)
		}
	}
	switch c.Retrieval.Reranker {
	case "", "similarity", "term_overlap":
	default:
		return fmt.Errorf("invalid reranker: %s", c.Retrieval.Reranker)
	}
	switch c.VectorStore.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("invalid vector store provider: %s", c.VectorStore.Provider)
	}
	return nil
}
