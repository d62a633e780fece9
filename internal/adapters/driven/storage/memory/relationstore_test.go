package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/kbcore/internal/core/domain"
)

func edge(a, b string, sim float64) domain.RelationEdge {
	return domain.NewRelationEdge(a, b, sim, time.Now())
}

func TestReplaceAllAndList(t *testing.T) {
	ctx := context.Background()
	s := NewRelationStore()

	require.NoError(t, s.ReplaceAll(ctx, []domain.RelationEdge{
		edge("d1", "d2", 0.9),
		edge("d2", "d3", 0.8),
	}))

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 2)

	// A second replace overwrites, not appends.
	require.NoError(t, s.ReplaceAll(ctx, []domain.RelationEdge{edge("d1", "d2", 0.9)}))
	edges, err = s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestEdgesForOrderedBySimilarity(t *testing.T) {
	ctx := context.Background()
	s := NewRelationStore()

	require.NoError(t, s.ReplaceAll(ctx, []domain.RelationEdge{
		edge("d1", "d2", 0.8),
		edge("d1", "d3", 0.95),
		edge("d2", "d3", 0.7),
	}))

	edges, err := s.EdgesFor(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "d3", edges[0].Other("d1"))
	assert.Equal(t, "d2", edges[1].Other("d1"))
}

func TestDeleteForRemovesTouchingEdges(t *testing.T) {
	ctx := context.Background()
	s := NewRelationStore()

	require.NoError(t, s.ReplaceAll(ctx, []domain.RelationEdge{
		edge("d1", "d2", 0.8),
		edge("d2", "d3", 0.7),
	}))
	require.NoError(t, s.DeleteFor(ctx, "d2"))

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}
