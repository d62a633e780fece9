package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/kbcore/internal/adapters/driven/storage/memory"
	"github.com/openclaw/kbcore/internal/core/domain"
)

// seedDocWithEmbeddings stores a document whose chunks carry the given
// embeddings.
func seedDocWithEmbeddings(t *testing.T, store *memory.DocumentStore, docID string, embeddings ...[]float32) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID: docID, Path: docID + ".txt", Format: domain.FormatText, IngestedAt: time.Now(),
	}))
	chunks := make([]domain.Chunk, len(embeddings))
	for i, e := range embeddings {
		chunks[i] = domain.Chunk{
			ID:         docID + "-c" + string(rune('0'+i)),
			DocumentID: docID,
			Ordinal:    i,
			Text:       "chunk",
			Embedding:  e,
		}
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))
}

func TestDiscoverLinksEmitsEdgesAboveThreshold(t *testing.T) {
	docs := memory.NewDocumentStore()
	rels := memory.NewRelationStore()
	svc := NewLinkerService(docs, rels)

	// a and b point the same way, c is orthogonal.
	seedDocWithEmbeddings(t, docs, "a", []float32{1, 0})
	seedDocWithEmbeddings(t, docs, "b", []float32{1, 0.01})
	seedDocWithEmbeddings(t, docs, "c", []float32{0, 1})

	edges, err := svc.DiscoverLinks(context.Background(), 0.9)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Touches("a"))
	assert.True(t, edges[0].Touches("b"))
	assert.Greater(t, edges[0].Similarity, 0.9)

	// The edge set was persisted.
	stored, err := rels.ListEdges(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestDiscoverLinksSkipsUnembeddedDocuments(t *testing.T) {
	docs := memory.NewDocumentStore()
	rels := memory.NewRelationStore()
	svc := NewLinkerService(docs, rels)

	seedDocWithEmbeddings(t, docs, "a", []float32{1, 0})
	// b has a chunk but no embedding: keyword-only after a failed embed.
	seedDocWithEmbeddings(t, docs, "b", nil)

	edges, err := svc.DiscoverLinks(context.Background(), 0.1)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestDiscoverLinksUsesCentroidOfAllChunks(t *testing.T) {
	docs := memory.NewDocumentStore()
	rels := memory.NewRelationStore()
	svc := NewLinkerService(docs, rels)

	// a's centroid is (0.5, 0.5); b points at (1, 1): identical direction.
	seedDocWithEmbeddings(t, docs, "a", []float32{1, 0}, []float32{0, 1})
	seedDocWithEmbeddings(t, docs, "b", []float32{1, 1})

	edges, err := svc.DiscoverLinks(context.Background(), 0.99)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.InDelta(t, 1.0, edges[0].Similarity, 1e-6)
}

func TestDiscoverLinksReplacesPreviousEdgeSet(t *testing.T) {
	docs := memory.NewDocumentStore()
	rels := memory.NewRelationStore()
	svc := NewLinkerService(docs, rels)

	require.NoError(t, rels.ReplaceAll(context.Background(), []domain.RelationEdge{
		domain.NewRelationEdge("stale1", "stale2", 0.99, time.Now()),
	}))

	_, err := svc.DiscoverLinks(context.Background(), 0.9)
	require.NoError(t, err)

	stored, err := rels.ListEdges(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRelatedOrdersByDescendingSimilarity(t *testing.T) {
	docs := memory.NewDocumentStore()
	rels := memory.NewRelationStore()
	svc := NewLinkerService(docs, rels)
	ctx := context.Background()

	seedDocWithEmbeddings(t, docs, "a", []float32{1, 0})
	now := time.Now()
	require.NoError(t, rels.ReplaceAll(ctx, []domain.RelationEdge{
		domain.NewRelationEdge("a", "b", 0.8, now),
		domain.NewRelationEdge("a", "c", 0.95, now),
		domain.NewRelationEdge("a", "d", 0.85, now),
	}))

	edges, err := svc.Related(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "c", edges[0].Other("a"))
	assert.Equal(t, "d", edges[1].Other("a"))
}

func TestRelatedUnknownDocumentReturnsNotFound(t *testing.T) {
	svc := NewLinkerService(memory.NewDocumentStore(), memory.NewRelationStore())
	_, err := svc.Related(context.Background(), "ghost", 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
