package driven

import "context"

// VectorIndex provides semantic similarity search operations.
type VectorIndex interface {
	// Upsert inserts or replaces the vector for the given chunk ID.
	Upsert(ctx context.Context, chunkID string, embedding []float32) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, chunkID string) error

	// Search finds the k nearest neighbours to the query vector, ordered
	// by descending similarity. Ties are broken by insertion order
	// (earlier wins) for determinism.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Close flushes persisted state and releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity mapped to [0,1].
	Similarity float64
}
