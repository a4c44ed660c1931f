// Package vectorstore defines the interface for vector storage operations.
package vectorstore

import (
	"context"
	"errors"
	"regexp"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrConnectionFailed indicates connection issues with the backend.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// ValidateCollectionName validates a collection name.
// Rejects uppercase, special characters, spaces, and path traversal.
func ValidateCollectionName(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return ErrInvalidCollectionName
	}
	return nil
}

// Store is the interface for vector storage operations.
//
// Each indexed charity gets its own collection, a disjoint partition of
// the index. Collections are replaced wholesale on re-indexing; there are
// no chunk-level updates. Implementations are transport-agnostic.
//
// Concurrent queries against the same collection are safe; re-indexing
// (CreateOrReplaceCollection) is destructive and must be serialized with
// reads and writes against the same collection name by the caller.
//
// Implementations:
//   - ChromemStore: embedded chromem-go (default)
//   - QdrantStore: external Qdrant gRPC client
type Store interface {
	// CreateOrReplaceCollection idempotently ensures a clean collection
	// exists, destroying any prior same-named one.
	CreateOrReplaceCollection(ctx context.Context, name string, metadata map[string]any) error

	// AddChunks bulk-inserts documents with precomputed vectors into a
	// collection. All documents must carry a vector of the configured
	// dimension. Returns ErrEmptyDocuments for an empty batch.
	AddChunks(ctx context.Context, collection string, docs []Document) error

	// Query performs similarity search restricted to a collection and
	// returns up to limit results ranked by descending similarity
	// (derived as 1 - cosine distance from the underlying metric).
	//
	// An empty collection name targets the default collection. Querying a
	// nonexistent collection degrades to an empty result with a logged
	// warning, not an error.
	Query(ctx context.Context, collection string, vector []float32, limit int) ([]SearchResult, error)

	// Count returns the number of stored documents in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// ListCollections returns all collection names.
	ListCollections(ctx context.Context) ([]string, error)

	// DeleteCollection deletes a collection and all its documents.
	DeleteCollection(ctx context.Context, name string) error

	// Close closes the vector store connection and releases resources.
	Close() error
}
