package driven

import "context"

// SearchEngine provides full-text keyword search operations.
// Backed by an inverted TF-IDF index over tokenised chunk text.
type SearchEngine interface {
	// Upsert adds or replaces a chunk's text in the index.
	Upsert(ctx context.Context, chunkID, text string) error

	// Delete removes a chunk from the index.
	Delete(ctx context.Context, chunkID string) error

	// Search returns up to k chunks ranked by relevance. Ties are broken
	// by chunk ID (lexical) for determinism.
	Search(ctx context.Context, query string, k int) ([]SearchHit, error)

	// Close flushes persisted state and releases resources.
	Close() error
}

// SearchHit is a keyword search result.
type SearchHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the raw relevance score (TF-IDF, unnormalised).
	Score float64
}
