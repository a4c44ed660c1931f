package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestChromemStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{
		Path:       t.TempDir(),
		VectorSize: 3,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDocs() []Document {
	return []Document{
		{
			ID:      "chunk_0",
			Content: "The Red Cross provides disaster relief worldwide.",
			Vector:  []float32{1, 0, 0},
			Metadata: map[string]any{
				"charity_name": "red_cross",
			},
		},
		{
			ID:      "chunk_1",
			Content: "Donations fund emergency shelters and medical aid.",
			Vector:  []float32{0.9, 0.1, 0},
			Metadata: map[string]any{
				"charity_name": "red_cross",
			},
		},
		{
			ID:      "chunk_2",
			Content: "Volunteers are trained in first aid.",
			Vector:  []float32{0, 1, 0},
			Metadata: map[string]any{
				"charity_name": "red_cross",
			},
		},
	}
}

func TestChromemStoreLifecycle(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateOrReplaceCollection(ctx, "red_cross", map[string]any{"strategy": "semantic"}))

	exists, err := store.CollectionExists(ctx, "red_cross")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.AddChunks(ctx, "red_cross", testDocs()))

	count, err := store.Count(ctx, "red_cross")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "red_cross")

	require.NoError(t, store.DeleteCollection(ctx, "red_cross"))

	exists, err = store.CollectionExists(ctx, "red_cross")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestChromemStoreQueryRanking(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateOrReplaceCollection(ctx, "red_cross", nil))
	require.NoError(t, store.AddChunks(ctx, "red_cross", testDocs()))

	results, err := store.Query(ctx, "red_cross", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// chunk_0 is an exact match, chunk_1 is close, chunk_2 orthogonal.
	assert.Equal(t, "chunk_0", results[0].ID)
	assert.Equal(t, "chunk_1", results[1].ID)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
	assert.InDelta(t, 1.0, float64(results[0].Similarity), 0.01)
	assert.Equal(t, "red_cross", results[0].Metadata["charity_name"])
}

func TestChromemStoreQueryLimitCappedAtCount(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateOrReplaceCollection(ctx, "red_cross", nil))
	require.NoError(t, store.AddChunks(ctx, "red_cross", testDocs()))

	results, err := store.Query(ctx, "red_cross", []float32{1, 0, 0}, 50)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestChromemStoreQueryNonexistentCollection(t *testing.T) {
	store := newTestChromemStore(t)

	results, err := store.Query(context.Background(), "no_such_charity", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemStoreCreateOrReplaceIsDestructive(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateOrReplaceCollection(ctx, "red_cross", nil))
	require.NoError(t, store.AddChunks(ctx, "red_cross", testDocs()))

	// Re-creating must discard all prior documents.
	require.NoError(t, store.CreateOrReplaceCollection(ctx, "red_cross", nil))

	count, err := store.Count(ctx, "red_cross")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestChromemStoreAddChunksValidation(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateOrReplaceCollection(ctx, "red_cross", nil))

	err := store.AddChunks(ctx, "red_cross", nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)

	err = store.AddChunks(ctx, "red_cross", []Document{
		{ID: "bad", Content: "wrong dimension", Vector: []float32{1, 0}},
	})
	assert.Error(t, err)

	err = store.AddChunks(ctx, "Bad Name", testDocs())
	assert.ErrorIs(t, err, ErrInvalidCollectionName)
}

func TestChromemStoreCountMissingCollection(t *testing.T) {
	store := newTestChromemStore(t)

	_, err := store.Count(context.Background(), "no_such_charity")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}
