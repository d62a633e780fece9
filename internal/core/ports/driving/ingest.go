package driving

import (
	"context"

	"github.com/openclaw/kbcore/internal/core/domain"
)

// IngestService ingests raw documents into both indexes.
type IngestService interface {
	// Ingest processes a batch of raw documents. One bad document never
	// fails the batch; the report carries per-document outcomes.
	Ingest(ctx context.Context, raws []domain.RawDocument) (*IngestReport, error)

	// Remove deletes a document, its index entries and any relation
	// edges touching it.
	Remove(ctx context.Context, documentID string) error
}

// DocumentOutcome records the result of ingesting one document.
type DocumentOutcome struct {
	// Path is the document source path.
	Path string

	// DocumentID is set when the document was stored.
	DocumentID string

	// Chunks is the number of chunks produced.
	Chunks int

	// VectorIncomplete is true when the chunks entered the keyword
	// index only because embedding failed.
	VectorIncomplete bool

	// Err is the rejection reason for failed documents, nil otherwise.
	Err error
}

// IngestReport summarises a batch ingest.
type IngestReport struct {
	// Succeeded counts documents fully or keyword-only indexed.
	Succeeded int

	// Failed counts rejected documents.
	Failed int

	// Outcomes holds one entry per input document, in input order.
	Outcomes []DocumentOutcome
}
