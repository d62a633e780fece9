package driven

import (
	"context"

	"github.com/openclaw/kbcore/internal/core/domain"
)

// Normaliser transforms a raw document into a document plus its chunks.
// Each normaliser handles one source format.
type Normaliser interface {
	// Format returns the source format this normaliser handles.
	Format() domain.Format

	// Normalise splits raw content into chunks with deterministic IDs.
	// Returns domain.ErrEmptyDocument for zero-length content.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult is the output of normalisation.
type NormaliseResult struct {
	// Document carries the derived identity and title.
	Document domain.Document

	// Chunks is the ordered chunk sequence. Embeddings are not yet
	// populated at this stage.
	Chunks []domain.Chunk
}
