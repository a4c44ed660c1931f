// Package retriever implements semantic retrieval over indexed charity
// documents.
//
// Retrieval is best-effort: every failure along the pipeline (embedding,
// vector search, reranking) is logged and degrades to an empty result set
// so that callers can always fall back to a no-context answer. Retrieve
// never returns an error.
package retriever

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/charityd/internal/embeddings"
	"github.com/fyrsmithlabs/charityd/internal/reranker"
	"github.com/fyrsmithlabs/charityd/internal/vectorstore"
)

var tracer = otel.Tracer("charityd.retriever")

// DefaultSimilarityThreshold applies when no threshold is configured.
const DefaultSimilarityThreshold float32 = 0.3

// Config holds retrieval tuning parameters.
type Config struct {
	// TopK is the default number of results to return. Default: 5.
	TopK int

	// SimilarityThreshold filters out results scoring below it. Cosine
	// similarity, so the valid range is [-1, 1] and zero is a meaningful
	// threshold; nil selects DefaultSimilarityThreshold.
	SimilarityThreshold *float32

	// Rerank enables re-ranking of the candidate set before truncation.
	Rerank bool

	// Debug retains per-query traces in memory for inspection.
	Debug bool
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.SimilarityThreshold == nil {
		threshold := DefaultSimilarityThreshold
		c.SimilarityThreshold = &threshold
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.SimilarityThreshold != nil {
		if t := *c.SimilarityThreshold; t < -1 || t > 1 {
			return fmt.Errorf("similarity_threshold must be in [-1, 1], got %v", t)
		}
	}
	return nil
}

// RetrievedResult is a single retrieved chunk with its relevance score.
type RetrievedResult struct {
	// Text is the chunk content.
	Text string `json:"text"`

	// Similarity is the relevance score, higher is more relevant.
	Similarity float32 `json:"similarity"`

	// Metadata carries the chunk metadata, including charity_name.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Trace records one retrieval for debugging.
type Trace struct {
	Query          string  `json:"query"`
	Collection     string  `json:"collection"`
	CandidateCount int     `json:"candidate_count"`
	FilteredCount  int     `json:"filtered_count"`
	ReturnedCount  int     `json:"returned_count"`
	Threshold      float32 `json:"threshold"`
	Reranked       bool    `json:"reranked"`
}

// Retriever performs semantic search against the vector store.
type Retriever struct {
	config   Config
	embedder embeddings.Embedder
	store    vectorstore.Store
	reranker reranker.Reranker
	logger   *zap.Logger

	mu     sync.Mutex
	traces []Trace
}

// New creates a Retriever. The reranker may be nil when Config.Rerank is
// false; when reranking is enabled and rr is nil, a similarity reranker
// is used.
func New(config Config, embedder embeddings.Embedder, store vectorstore.Store, rr reranker.Reranker, logger *zap.Logger) (*Retriever, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if rr == nil {
		rr = reranker.NewSimilarityReranker()
	}

	return &Retriever{
		config:   config,
		embedder: embedder,
		store:    store,
		reranker: rr,
		logger:   logger,
	}, nil
}

// NormalizeCollectionName maps a human-readable charity name to its
// collection name: lowercased with spaces replaced by underscores.
func NormalizeCollectionName(charityName string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(charityName)), " ", "_")
}

// Retrieve returns up to topK chunks relevant to the query, restricted to
// the named charity's collection. An empty charityName targets the default
// collection; topK <= 0 uses the configured default.
//
// Retrieve never fails: embedding errors, missing collections, and store
// errors all degrade to an empty result set with a logged warning.
func (r *Retriever) Retrieve(ctx context.Context, query, charityName string, topK int) []RetrievedResult {
	ctx, span := tracer.Start(ctx, "Retriever.Retrieve")
	defer span.End()

	if topK <= 0 {
		topK = r.config.TopK
	}
	collection := NormalizeCollectionName(charityName)

	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("top_k", topK),
	)

	threshold := *r.config.SimilarityThreshold
	trace := Trace{
		Query:      query,
		Collection: collection,
		Threshold:  threshold,
	}
	defer r.record(&trace)

	if strings.TrimSpace(query) == "" {
		return []RetrievedResult{}
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("query embedding failed, returning empty results",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return []RetrievedResult{}
	}

	// Over-fetch so threshold filtering still leaves topK candidates.
	candidates, err := r.store.Query(ctx, collection, vector, topK*2)
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("vector search failed, returning empty results",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return []RetrievedResult{}
	}
	trace.CandidateCount = len(candidates)

	filtered := candidates[:0:len(candidates)]
	for _, c := range candidates {
		if c.Similarity >= threshold {
			filtered = append(filtered, c)
		}
	}
	trace.FilteredCount = len(filtered)

	results := r.rank(ctx, query, filtered, topK, &trace)
	trace.ReturnedCount = len(results)

	span.SetAttributes(attribute.Int("results_count", len(results)))
	span.SetStatus(codes.Ok, "success")

	r.logger.Debug("retrieval completed",
		zap.String("collection", collection),
		zap.Int("candidates", trace.CandidateCount),
		zap.Int("filtered", trace.FilteredCount),
		zap.Int("returned", trace.ReturnedCount),
	)

	return results
}

// rank applies optional reranking and truncates to topK.
func (r *Retriever) rank(ctx context.Context, query string, filtered []vectorstore.SearchResult, topK int, trace *Trace) []RetrievedResult {
	if r.config.Rerank && len(filtered) > 1 {
		docs := make([]reranker.Document, len(filtered))
		for i, c := range filtered {
			docs[i] = reranker.Document{ID: c.ID, Content: c.Content, Score: c.Similarity}
		}

		ranked, err := r.reranker.Rerank(ctx, query, docs, topK)
		if err != nil {
			r.logger.Warn("reranking failed, keeping similarity order", zap.Error(err))
		} else {
			trace.Reranked = true
			results := make([]RetrievedResult, len(ranked))
			for i, doc := range ranked {
				results[i] = RetrievedResult{
					Text:       doc.Content,
					Similarity: doc.Score,
					Metadata:   filtered[doc.OriginalRank].Metadata,
				}
			}
			return results
		}
	}

	if len(filtered) > topK {
		filtered = filtered[:topK]
	}
	results := make([]RetrievedResult, len(filtered))
	for i, c := range filtered {
		results[i] = RetrievedResult{
			Text:       c.Content,
			Similarity: c.Similarity,
			Metadata:   c.Metadata,
		}
	}
	return results
}

// record appends a trace when debug mode is on.
func (r *Retriever) record(t *Trace) {
	if !r.config.Debug {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces = append(r.traces, *t)
}

// Traces returns a copy of the retained debug traces.
func (r *Retriever) Traces() []Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Trace, len(r.traces))
	copy(out, r.traces)
	return out
}

// ClearTraces discards all retained debug traces.
func (r *Retriever) ClearTraces() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces = nil
}

// Stats summarizes the retained debug traces.
type Stats struct {
	QueryCount    int     `json:"query_count"`
	EmptyCount    int     `json:"empty_count"`
	AvgCandidates float64 `json:"avg_candidates"`
	AvgReturned   float64 `json:"avg_returned"`
	RerankedShare float64 `json:"reranked_share"`
}

// Stats aggregates the retained debug traces.
func (r *Retriever) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{QueryCount: len(r.traces)}
	if len(r.traces) == 0 {
		return stats
	}

	var candidates, returned, reranked int
	for _, t := range r.traces {
		candidates += t.CandidateCount
		returned += t.ReturnedCount
		if t.ReturnedCount == 0 {
			stats.EmptyCount++
		}
		if t.Reranked {
			reranked++
		}
	}
	n := float64(len(r.traces))
	stats.AvgCandidates = float64(candidates) / n
	stats.AvgReturned = float64(returned) / n
	stats.RerankedShare = float64(reranked) / n
	return stats
}
