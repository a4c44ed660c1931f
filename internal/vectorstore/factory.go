package vectorstore

import (
	"fmt"

	"go.uber.org/zap"
)

// Config selects and configures a vector store backend.
type Config struct {
	// Provider selects the backend: "chromem" (embedded, default) or
	// "qdrant" (external gRPC service).
	Provider string

	// Chromem configures the embedded chromem-go backend.
	Chromem ChromemConfig

	// Qdrant configures the external Qdrant backend.
	Qdrant QdrantConfig
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "chromem"
	}
	c.Chromem.ApplyDefaults()
	c.Qdrant.ApplyDefaults()
}

// NewStore creates the vector store backend selected by config.Provider.
func NewStore(config Config, logger *zap.Logger) (Store, error) {
	config.ApplyDefaults()

	switch config.Provider {
	case "chromem":
		return NewChromemStore(config.Chromem, logger)
	case "qdrant":
		return NewQdrantStore(config.Qdrant, logger)
	default:
		return nil, fmt.Errorf("%w: unknown vector store provider: %s", ErrInvalidConfig, config.Provider)
	}
}
