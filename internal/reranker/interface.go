// Package reranker provides result re-ranking for improving retrieval quality.
package reranker

import (
	"context"
	"fmt"
)

// Document represents a retrieved chunk with its similarity score.
type Document struct {
	ID      string  // Unique identifier for the chunk
	Content string  // Chunk text to be re-ranked
	Score   float32 // Original similarity score from vector search
}

// ScoredDocument represents a document with re-ranking scores.
type ScoredDocument struct {
	Document
	RerankerScore float32 // Score assigned by the re-ranker (0.0-1.0)
	OriginalRank  int     // Original rank position in results (0-indexed)
}

// Reranker re-orders retrieved documents by query relevance.
type Reranker interface {
	// Rerank re-ranks documents and returns them sorted by descending
	// relevance, limited to topK results. A topK <= 0 means no limit.
	//
	// The caller is responsible for ensuring ctx is not nil.
	Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error)

	// Close closes the reranker and releases any resources.
	Close() error
}

// New returns the reranker selected by name. Valid names are "similarity"
// (also the default for an empty name) and "term_overlap".
func New(name string) (Reranker, error) {
	switch name {
	case "", "similarity":
		return NewSimilarityReranker(), nil
	case "term_overlap":
		return NewTermOverlapReranker(), nil
	default:
		return nil, fmt.Errorf("unknown reranker: %q", name)
	}
}
