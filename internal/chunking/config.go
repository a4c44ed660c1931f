package chunking

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates invalid chunking configuration.
var ErrInvalidConfig = errors.New("invalid chunking configuration")

// Strategy selects the chunking algorithm.
//
// The set of strategies is closed; Chunker.Chunk dispatches with an
// exhaustive switch so an unknown strategy is caught at Validate time.
type Strategy string

const (
	// StrategyFixed slides a fixed-size word window with overlap.
	StrategyFixed Strategy = "fixed"

	// StrategyParagraph accumulates blank-line-separated paragraphs.
	StrategyParagraph Strategy = "paragraph"

	// StrategySemantic accumulates sentences split on terminal punctuation.
	StrategySemantic Strategy = "semantic"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyFixed, StrategyParagraph, StrategySemantic:
		return true
	}
	return false
}

// Config holds configuration for document chunking.
type Config struct {
	// ChunkSize is the target token count per chunk.
	ChunkSize int

	// Overlap is the token overlap between consecutive chunks.
	// Only the fixed strategy honors overlap.
	Overlap int

	// Strategy selects the chunking algorithm.
	Strategy Strategy

	// MinChunkSize is the minimum token count for a chunk to be kept.
	// Only the fixed strategy discards sub-threshold chunks; this drops
	// trailing windows below the threshold, which is accepted data loss.
	MinChunkSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 512
	}
	if c.Overlap == 0 {
		c.Overlap = 50
	}
	if c.Strategy == "" {
		c.Strategy = StrategySemantic
	}
	if c.MinChunkSize == 0 {
		c.MinChunkSize = 100
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be non-negative", ErrInvalidConfig)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidConfig, c.Overlap, c.ChunkSize)
	}
	if c.MinChunkSize < 0 {
		return fmt.Errorf("%w: min chunk size must be non-negative", ErrInvalidConfig)
	}
	if !c.Strategy.Valid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, c.Strategy)
	}
	return nil
}
