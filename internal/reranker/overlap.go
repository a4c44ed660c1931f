package reranker

import (
	"context"
	"sort"
	"strings"
)

// TermOverlapReranker combines vector similarity with lexical term overlap.
// It calculates term overlap between the query and documents, then blends
// the original score with the overlap score to produce a final ranking.
// Useful when charity documents share vocabulary with the question but the
// embedding model underweights exact terms like program or campaign names.
type TermOverlapReranker struct{}

// NewTermOverlapReranker creates a new TermOverlapReranker instance.
func NewTermOverlapReranker() *TermOverlapReranker {
	return &TermOverlapReranker{}
}

// Rerank re-ranks documents by blended similarity and term overlap.
// The algorithm:
//  1. Tokenizes the query into lowercased terms
//  2. For each document, calculates term overlap with the query
//  3. Combines original score (50% weight) with overlap score (50% weight)
//  4. Sorts by combined score and returns top K results
func (r *TermOverlapReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if topK <= 0 {
		topK = len(docs)
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		// Nothing lexical to match against; keep the similarity ordering.
		return NewSimilarityReranker().Rerank(ctx, query, docs, topK)
	}

	type scoredDoc struct {
		doc      ScoredDocument
		combined float32
	}

	scoredDocs := make([]scoredDoc, len(docs))
	for i, doc := range docs {
		overlap := calculateTermOverlap(queryTokens, tokenize(doc.Content))

		// 50% semantic similarity, 50% lexical overlap.
		combined := 0.5*doc.Score + 0.5*overlap

		scoredDocs[i] = scoredDoc{
			doc: ScoredDocument{
				Document:      doc,
				RerankerScore: overlap,
				OriginalRank:  i,
			},
			combined: combined,
		}
	}

	sort.SliceStable(scoredDocs, func(i, j int) bool {
		return scoredDocs[i].combined > scoredDocs[j].combined
	})

	limit := topK
	if limit > len(scoredDocs) {
		limit = len(scoredDocs)
	}

	result := make([]ScoredDocument, limit)
	for i := 0; i < limit; i++ {
		result[i] = scoredDocs[i].doc
	}
	return result, nil
}

// Close closes the reranker. TermOverlapReranker has no resources to clean up.
func (r *TermOverlapReranker) Close() error {
	return nil
}

// tokenize splits text into lowercase terms, filtering out common stopwords.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !isAlphanumeric(r)
	})

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isStopword(token) && len(token) > 2 {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// isAlphanumeric returns true if the rune is alphanumeric or underscore.
func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "you": true, "he": true,
	"she": true, "it": true, "we": true, "they": true, "what": true, "which": true,
	"who": true, "when": true, "where": true, "why": true, "how": true,
}

// isStopword returns true if the token is a common English stopword.
func isStopword(token string) bool {
	return stopwords[token]
}

// calculateTermOverlap calculates the ratio of unique query terms found in
// the document tokens. Returns a score between 0.0 and 1.0.
func calculateTermOverlap(queryTokens, docTokens []string) float32 {
	if len(queryTokens) == 0 {
		return 0.0
	}

	docTokenSet := make(map[string]bool, len(docTokens))
	for _, token := range docTokens {
		docTokenSet[token] = true
	}

	matchCount := 0
	counted := make(map[string]bool, len(queryTokens))
	for _, queryToken := range queryTokens {
		if docTokenSet[queryToken] && !counted[queryToken] {
			matchCount++
			counted[queryToken] = true
		}
	}

	return float32(matchCount) / float32(len(queryTokens))
}
