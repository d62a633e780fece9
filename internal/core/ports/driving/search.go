package driving

import (
	"context"

	"github.com/openclaw/kbcore/internal/core/domain"
)

// SearchService answers queries against the indexes.
type SearchService interface {
	// Search executes a query in the requested mode. Hybrid mode fuses
	// both indexes and degrades to a single index (with a warning on
	// the result set) when the other is unavailable.
	Search(ctx context.Context, query domain.Query) (*domain.ResultSet, error)
}
