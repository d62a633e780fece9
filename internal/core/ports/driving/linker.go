package driving

import (
	"context"

	"github.com/openclaw/kbcore/internal/core/domain"
)

// LinkerService discovers and serves related-document edges.
type LinkerService interface {
	// DiscoverLinks recomputes the relation edge set for the current
	// corpus. Runs as a batch job, never on the query path.
	DiscoverLinks(ctx context.Context, threshold float64) ([]domain.RelationEdge, error)

	// Related returns up to limit documents linked to docID, ordered by
	// descending similarity.
	Related(ctx context.Context, docID string, limit int) ([]domain.RelationEdge, error)
}
