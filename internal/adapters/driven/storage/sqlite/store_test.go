package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/kbcore/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "kb-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// createTestDocument saves a document to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, docID string) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	err := store.DocumentStore().SaveDocument(context.Background(), &domain.Document{
		ID:         docID,
		Path:       "notes/" + docID + ".md",
		Title:      "Test Document " + docID,
		Format:     domain.FormatMarkdown,
		IngestedAt: now,
	})
	require.NoError(t, err)
}

func TestStoreMigratesOnOpen(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	// Reopening the same directory must be a no-op for migrations.
	again, err := NewStore(store.Path()[:len(store.Path())-len("/metadata.db")])
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}

func TestDocumentRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "d1")

	doc, err := store.DocumentStore().GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "notes/d1.md", doc.Path)
	assert.Equal(t, domain.FormatMarkdown, doc.Format)

	doc, err = store.DocumentStore().GetDocumentByPath(ctx, "notes/d1.md")
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)

	_, err = store.DocumentStore().GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveChunksReplacesAndPreservesEmbedding(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "d1")
	docs := store.DocumentStore()

	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Ordinal: 0, Text: "old"},
	}))
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c2", DocumentID: "d1", Ordinal: 1, Text: "second", Embedding: []float32{0.1, -0.2, 3}},
		{ID: "c3", DocumentID: "d1", Ordinal: 0, Text: "first", VectorIncomplete: true},
	}))

	// Replaced wholesale: the old chunk is gone.
	_, err := docs.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := docs.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "c3", chunks[0].ID)
	assert.True(t, chunks[0].VectorIncomplete)
	assert.Equal(t, []float32{0.1, -0.2, 3}, chunks[1].Embedding)
}

func TestDeleteDocumentCascades(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "d1")
	docs := store.DocumentStore()
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Ordinal: 0, Text: "body"},
	}))

	require.NoError(t, docs.DeleteDocument(ctx, "d1"))

	_, err := docs.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = docs.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDocumentsOrderedByPath(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	createTestDocument(t, store, "zeta")
	createTestDocument(t, store, "alpha")

	docs, err := store.DocumentStore().ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "alpha", docs[0].ID)
}

func TestRelationReplaceAllAndEdgesFor(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	rels := store.RelationStore()

	require.NoError(t, rels.ReplaceAll(ctx, []domain.RelationEdge{
		domain.NewRelationEdge("d1", "d2", 0.8, now),
		domain.NewRelationEdge("d1", "d3", 0.95, now),
		domain.NewRelationEdge("d2", "d3", 0.7, now),
	}))

	edges, err := rels.EdgesFor(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "d3", edges[0].Other("d1"))

	// Replace overwrites the previous set.
	require.NoError(t, rels.ReplaceAll(ctx, nil))
	edges, err = rels.ListEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestRelationDeleteFor(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	rels := store.RelationStore()
	require.NoError(t, rels.ReplaceAll(ctx, []domain.RelationEdge{
		domain.NewRelationEdge("d1", "d2", 0.8, now),
		domain.NewRelationEdge("d2", "d3", 0.7, now),
		domain.NewRelationEdge("d1", "d3", 0.9, now),
	}))

	require.NoError(t, rels.DeleteFor(ctx, "d2"))

	edges, err := rels.ListEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Touches("d1"))
	assert.True(t, edges[0].Touches("d3"))
}
