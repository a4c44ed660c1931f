package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/charityd/internal/vectorstore"
)

// fakeEmbedder returns a fixed vector for any input.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeStore serves canned results and records the requested collection
// and limit.
type fakeStore struct {
	results       []vectorstore.SearchResult
	err           error
	gotCollection string
	gotLimit      int
}

func (f *fakeStore) CreateOrReplaceCollection(ctx context.Context, name string, metadata map[string]any) error {
	return nil
}

func (f *fakeStore) AddChunks(ctx context.Context, collection string, docs []vectorstore.Document) error {
	return nil
}

func (f *fakeStore) Query(ctx context.Context, collection string, vector []float32, limit int) ([]vectorstore.SearchResult, error) {
	f.gotCollection = collection
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeStore) Count(ctx context.Context, collection string) (int, error) {
	return len(f.results), nil
}

func (f *fakeStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	return true, nil
}

func (f *fakeStore) ListCollections(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeStore) DeleteCollection(ctx context.Context, name string) error {
	return nil
}

func (f *fakeStore) Close() error { return nil }

func threshold(v float32) *float32 {
	return &v
}

func newTestRetriever(t *testing.T, config Config, store *fakeStore) *Retriever {
	t.Helper()
	r, err := New(config, &fakeEmbedder{vector: []float32{1, 0, 0}}, store, nil, zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestNormalizeCollectionName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Save The Children", want: "save_the_children"},
		{input: "red_cross", want: "red_cross"},
		{input: "  UNICEF  ", want: "unicef"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCollectionName(tt.input))
		})
	}
}

func TestRetrieveFiltersAndTruncates(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "a", Content: "highly relevant", Similarity: 0.95, Metadata: map[string]any{"charity_name": "red_cross"}},
		{ID: "b", Content: "relevant", Similarity: 0.80},
		{ID: "c", Content: "borderline", Similarity: 0.70},
		{ID: "d", Content: "irrelevant", Similarity: 0.20},
	}}

	r := newTestRetriever(t, Config{TopK: 2, SimilarityThreshold: threshold(0.7)}, store)

	results := r.Retrieve(context.Background(), "what does the charity do", "Red Cross", 0)

	// Over-fetch is 2x the effective topK.
	assert.Equal(t, "red_cross", store.gotCollection)
	assert.Equal(t, 4, store.gotLimit)

	// Threshold keeps a, b, c (>= 0.7); truncation keeps the top 2.
	require.Len(t, results, 2)
	assert.Equal(t, "highly relevant", results[0].Text)
	assert.Equal(t, "relevant", results[1].Text)
	assert.Equal(t, "red_cross", results[0].Metadata["charity_name"])
}

func TestRetrieveThresholdIsInclusive(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "edge", Content: "exactly at threshold", Similarity: 0.7},
	}}

	r := newTestRetriever(t, Config{TopK: 5, SimilarityThreshold: threshold(0.7)}, store)

	results := r.Retrieve(context.Background(), "query", "charity", 0)
	require.Len(t, results, 1)
}

func TestRetrieveZeroThresholdKeepsWeakMatches(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "weak", Content: "weak match", Similarity: 0.1},
		{ID: "opposed", Content: "opposed match", Similarity: -0.2},
	}}

	// An explicit zero threshold must not be replaced by the default.
	r := newTestRetriever(t, Config{TopK: 5, SimilarityThreshold: threshold(0)}, store)

	results := r.Retrieve(context.Background(), "query", "charity", 0)
	require.Len(t, results, 1)
	assert.Equal(t, "weak match", results[0].Text)
}

func TestRetrieveNegativeThreshold(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "a", Content: "weak match", Similarity: 0.1},
		{ID: "b", Content: "opposed match", Similarity: -0.2},
		{ID: "c", Content: "strongly opposed", Similarity: -0.9},
	}}

	// Cosine similarity spans [-1, 1], so negative thresholds are valid.
	r := newTestRetriever(t, Config{TopK: 5, SimilarityThreshold: threshold(-0.5)}, store)

	results := r.Retrieve(context.Background(), "query", "charity", 0)
	require.Len(t, results, 2)
	assert.Equal(t, "weak match", results[0].Text)
	assert.Equal(t, "opposed match", results[1].Text)
}

func TestConfigValidateThresholdRange(t *testing.T) {
	tests := []struct {
		name      string
		threshold *float32
		wantErr   bool
	}{
		{name: "unset uses default", threshold: nil},
		{name: "zero", threshold: threshold(0)},
		{name: "negative", threshold: threshold(-0.5)},
		{name: "lower bound", threshold: threshold(-1)},
		{name: "upper bound", threshold: threshold(1)},
		{name: "below range", threshold: threshold(-1.5), wantErr: true},
		{name: "above range", threshold: threshold(1.5), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{SimilarityThreshold: tt.threshold}, &fakeEmbedder{vector: []float32{1}}, &fakeStore{}, nil, zap.NewNop())
			if tt.wantErr {
				assert.ErrorContains(t, err, "similarity_threshold must be in [-1, 1]")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetrieveNeverErrors(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		store := &fakeStore{}
		r, err := New(Config{}, &fakeEmbedder{err: errors.New("api down")}, store, nil, zap.NewNop())
		require.NoError(t, err)

		results := r.Retrieve(context.Background(), "query", "charity", 0)
		assert.Empty(t, results)
	})

	t.Run("store failure", func(t *testing.T) {
		store := &fakeStore{err: errors.New("connection refused")}
		r := newTestRetriever(t, Config{}, store)

		results := r.Retrieve(context.Background(), "query", "charity", 0)
		assert.Empty(t, results)
	})

	t.Run("empty query", func(t *testing.T) {
		store := &fakeStore{}
		r := newTestRetriever(t, Config{}, store)

		results := r.Retrieve(context.Background(), "   ", "charity", 0)
		assert.Empty(t, results)
	})
}

func TestRetrieveRerankPreservesMetadata(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "a", Content: "general info", Similarity: 0.9, Metadata: map[string]any{"chunk": "a"}},
		{ID: "b", Content: "more general info", Similarity: 0.8, Metadata: map[string]any{"chunk": "b"}},
	}}

	r := newTestRetriever(t, Config{TopK: 2, SimilarityThreshold: threshold(0.3), Rerank: true}, store)

	results := r.Retrieve(context.Background(), "general info", "charity", 0)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Metadata["chunk"])
	assert.Equal(t, "b", results[1].Metadata["chunk"])
}

func TestRetrieveDebugTraces(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "a", Content: "text", Similarity: 0.9},
		{ID: "b", Content: "text", Similarity: 0.1},
	}}

	r := newTestRetriever(t, Config{TopK: 5, SimilarityThreshold: threshold(0.5), Debug: true}, store)

	r.Retrieve(context.Background(), "first", "charity", 0)
	r.Retrieve(context.Background(), "second", "charity", 0)

	traces := r.Traces()
	require.Len(t, traces, 2)
	assert.Equal(t, "first", traces[0].Query)
	assert.Equal(t, 2, traces[0].CandidateCount)
	assert.Equal(t, 1, traces[0].FilteredCount)
	assert.Equal(t, 1, traces[0].ReturnedCount)

	stats := r.Stats()
	assert.Equal(t, 2, stats.QueryCount)
	assert.InDelta(t, 2.0, stats.AvgCandidates, 0.001)
	assert.InDelta(t, 1.0, stats.AvgReturned, 0.001)

	r.ClearTraces()
	assert.Empty(t, r.Traces())
}

func TestRetrieveDebugDisabledRetainsNothing(t *testing.T) {
	store := &fakeStore{}
	r := newTestRetriever(t, Config{}, store)

	r.Retrieve(context.Background(), "query", "charity", 0)
	assert.Empty(t, r.Traces())
}
