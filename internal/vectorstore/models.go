package vectorstore

// Document represents a chunk to be stored in the vector store.
type Document struct {
	// ID is the unique identifier within the target collection.
	ID string

	// Content is the chunk text.
	Content string

	// Vector is the precomputed embedding for Content.
	Vector []float32

	// Metadata contains additional key-value pairs. Once a chunk flows
	// through the indexing pipeline this includes charity_name at minimum.
	Metadata map[string]any
}

// SearchResult represents a single similarity search hit.
//
// Results are ephemeral, produced fresh per query and never persisted.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Content is the document text content.
	Content string

	// Similarity is the similarity score (higher = more relevant).
	Similarity float32

	// Metadata contains the document metadata.
	Metadata map[string]any
}

// CollectionInfo contains metadata about a vector collection.
type CollectionInfo struct {
	Name       string `json:"name"`
	PointCount int    `json:"point_count"`
	VectorSize int    `json:"vector_size"`
}
