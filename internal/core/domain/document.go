package domain

import "time"

// Format identifies the source format of a raw document.
type Format string

const (
	// FormatMarkdown is markdown text (.md, .markdown).
	FormatMarkdown Format = "markdown"

	// FormatText is plain text (.txt, .text).
	FormatText Format = "text"
)

// RawDocument is the ingestion input supplied by an external source.
// The engine never reads files itself; callers provide the tuple.
type RawDocument struct {
	// Path is the original location of the content. It doubles as the
	// stable identity of the document: re-ingesting the same path
	// replaces the previous version wholesale.
	Path string

	// Content is the raw text.
	Content string

	// Format is the declared source format.
	Format Format
}

// Document represents an ingested document with metadata.
// Documents are immutable once stored; re-ingest replaces them.
type Document struct {
	// ID is derived deterministically from Path.
	ID string

	// Path is the original source location.
	Path string

	// Title is the human-readable title extracted during normalisation.
	Title string

	// Format is the source format.
	Format Format

	// IngestedAt is when the document was (last) ingested.
	IngestedAt time.Time
}

// Chunk is the atomic retrievable unit. Each chunk belongs to exactly
// one document and is indexed by both the vector and keyword indexes.
type Chunk struct {
	// ID is a content hash of (document ID, ordinal, text), so identical
	// content re-ingested yields identical chunk IDs.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Ordinal is the position within the document, starting at 0.
	Ordinal int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation. Nil when the embedding
	// backend was unavailable at ingest time.
	Embedding []float32

	// VectorIncomplete marks a chunk that is present in the keyword
	// index only because embedding failed. Such chunks are candidates
	// for re-embedding on a later pass.
	VectorIncomplete bool
}
