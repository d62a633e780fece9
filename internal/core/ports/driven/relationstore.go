package driven

import (
	"context"

	"github.com/openclaw/kbcore/internal/core/domain"
)

// RelationStore persists discovered relation edges between documents.
type RelationStore interface {
	// ReplaceAll atomically replaces the stored edge set. The linker is
	// idempotent, so each run rewrites the whole set.
	ReplaceAll(ctx context.Context, edges []domain.RelationEdge) error

	// ListEdges returns all stored edges.
	ListEdges(ctx context.Context) ([]domain.RelationEdge, error)

	// EdgesFor returns edges touching the given document, ordered by
	// descending similarity.
	EdgesFor(ctx context.Context, docID string) ([]domain.RelationEdge, error)

	// DeleteFor removes every edge touching the given document.
	DeleteFor(ctx context.Context, docID string) error
}
