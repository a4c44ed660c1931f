package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/charityd/internal/retriever"
	"github.com/fyrsmithlabs/charityd/internal/session"
	"github.com/fyrsmithlabs/charityd/internal/vectorstore"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type fakeStore struct {
	results []vectorstore.SearchResult
}

func (f *fakeStore) CreateOrReplaceCollection(ctx context.Context, name string, metadata map[string]any) error {
	return nil
}
func (f *fakeStore) AddChunks(ctx context.Context, collection string, docs []vectorstore.Document) error {
	return nil
}
func (f *fakeStore) Query(ctx context.Context, collection string, vector []float32, limit int) ([]vectorstore.SearchResult, error) {
	return f.results, nil
}
func (f *fakeStore) Count(ctx context.Context, collection string) (int, error) { return 0, nil }
func (f *fakeStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	return true, nil
}
func (f *fakeStore) ListCollections(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeStore) DeleteCollection(ctx context.Context, name string) error {
	return nil
}
func (f *fakeStore) Close() error { return nil }

type fakeGenerator struct {
	answer    string
	err       error
	gotSystem string
	gotUser   string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	f.gotSystem = system
	f.gotUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) Close() error { return nil }

func newTestService(t *testing.T, store *fakeStore, gen *fakeGenerator, sessions session.Store) *Service {
	t.Helper()
	threshold := float32(0.3)
	r, err := retriever.New(retriever.Config{TopK: 5, SimilarityThreshold: &threshold}, fakeEmbedder{}, store, nil, zap.NewNop())
	require.NoError(t, err)

	svc, err := New(Config{MaxContextTokens: 2000}, r, gen, sessions, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestQueryGrounded(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "a", Content: "The Red Cross provides disaster relief.", Similarity: 0.9},
		{ID: "b", Content: "Donations fund emergency shelters.", Similarity: 0.8},
	}}
	gen := &fakeGenerator{answer: "They provide disaster relief."}
	svc := newTestService(t, store, gen, nil)

	resp, err := svc.Query(context.Background(), Request{Query: "What do they do?", CharityName: "Red Cross"})
	require.NoError(t, err)

	assert.Equal(t, "They provide disaster relief.", resp.Answer)
	assert.True(t, resp.Grounded)
	assert.Equal(t, 2, resp.ChunkCount)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "The Red Cross provides disaster relief.", resp.Sources[0].Text)
	assert.InDelta(t, 0.9, float64(resp.Sources[0].Similarity), 0.001)

	assert.Contains(t, gen.gotSystem, "based ONLY on the provided context")
	assert.Contains(t, gen.gotUser, "The Red Cross provides disaster relief.")
	assert.Contains(t, gen.gotUser, "What do they do?")
}

func TestQueryFallbackWhenNothingRetrieved(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{answer: "should not be called"}
	svc := newTestService(t, store, gen, nil)

	resp, err := svc.Query(context.Background(), Request{Query: "How do I donate?", CharityName: "Red Cross"})
	require.NoError(t, err)

	assert.False(t, resp.Grounded)
	assert.Empty(t, resp.Sources)
	assert.Contains(t, resp.Answer, "I don't have enough information")
	assert.Contains(t, resp.Answer, "How do I donate?")
	assert.Empty(t, gen.gotUser)
}

func TestQueryGenerationError(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "a", Content: "context text", Similarity: 0.9},
	}}
	gen := &fakeGenerator{err: errors.New("rate limited")}
	svc := newTestService(t, store, gen, nil)

	_, err := svc.Query(context.Background(), Request{Query: "question"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generating answer")
}

func TestQueryRecordsSessionTurns(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "a", Content: "context", Similarity: 0.9},
	}}
	gen := &fakeGenerator{answer: "the answer"}
	sessions := session.NewMemoryStore(10)
	svc := newTestService(t, store, gen, sessions)

	_, err := svc.Query(context.Background(), Request{Query: "the question", SessionID: "s1"})
	require.NoError(t, err)

	history, err := sessions.Get("s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "the question", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "the answer", history[1].Content)
}

func TestQuerySkipsSessionWithoutID(t *testing.T) {
	store := &fakeStore{}
	sessions := session.NewMemoryStore(10)
	svc := newTestService(t, store, &fakeGenerator{answer: "x"}, sessions)

	_, err := svc.Query(context.Background(), Request{Query: "question"})
	require.NoError(t, err)

	_, err = sessions.Get("")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSourceTextTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	store := &fakeStore{results: []vectorstore.SearchResult{
		{ID: "a", Content: long, Similarity: 0.9},
	}}
	svc := newTestService(t, store, &fakeGenerator{answer: "ok"}, nil)

	resp, err := svc.Query(context.Background(), Request{Query: "question"})
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)
	assert.Len(t, resp.Sources[0].Text, sourcePreviewLength+3)
	assert.True(t, strings.HasSuffix(resp.Sources[0].Text, "..."))
}
