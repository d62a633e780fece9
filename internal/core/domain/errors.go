package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a document format or file extension
	// no normaliser handles. The input is rejected, never retried.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument indicates zero-length document content.
	ErrEmptyDocument = errors.New("empty document")

	// ErrEmbeddingUnavailable indicates every configured embedding
	// endpoint failed (or none is configured). The whole batch fails;
	// affected chunks stay out of the vector index.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates both sub-indexes are down and a
	// query cannot be answered at all.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured. Semantic similarity search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrKeywordIndexUnavailable indicates the keyword index is not
	// configured. Full-text search is disabled.
	ErrKeywordIndexUnavailable = errors.New("keyword index unavailable")
)
