package reranker

import (
	"context"
	"errors"
	"sort"
)

// ErrNilContext is returned when a nil context is passed to Rerank.
var ErrNilContext = errors.New("context cannot be nil")

// SimilarityReranker orders documents by their original similarity score.
//
// The vector store already returns results ranked by similarity, but the
// retrieval pipeline widens the candidate set and filters by threshold
// before truncation, so a final deterministic sort keeps the ordering
// stable regardless of backend behavior. Ties preserve the original order.
type SimilarityReranker struct{}

// NewSimilarityReranker creates a new SimilarityReranker instance.
func NewSimilarityReranker() *SimilarityReranker {
	return &SimilarityReranker{}
}

// Rerank sorts documents by descending similarity score.
func (r *SimilarityReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		scored[i] = ScoredDocument{
			Document:      doc,
			RerankerScore: doc.Score,
			OriginalRank:  i,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankerScore > scored[j].RerankerScore
	})

	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// Close closes the reranker. SimilarityReranker has no resources to clean up.
func (r *SimilarityReranker) Close() error {
	return nil
}
