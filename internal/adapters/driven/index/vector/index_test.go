package vector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New("")
	require.NoError(t, err)
	return idx
}

func TestSearchOrdersByDescendingSimilarity(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "east", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "north", []float32{0, 1}))
	require.NoError(t, idx.Upsert(ctx, "west", []float32{-1, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "east", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "north", hits[1].ChunkID)
	assert.InDelta(t, 0.5, hits[1].Similarity, 1e-9)
	assert.Equal(t, "west", hits[2].ChunkID)
	assert.InDelta(t, 0.0, hits[2].Similarity, 1e-9)
}

func TestSearchLimitsToK(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, idx.Upsert(ctx, id, []float32{1, 0}))
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestTiesBrokenByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	// Identical vectors: the earlier insertion wins the tie.
	require.NoError(t, idx.Upsert(ctx, "second-alphabetically", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "first-alphabetically", []float32{1, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "second-alphabetically", hits[0].ChunkID)
}

func TestUpsertReplacesKeepingPosition(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "b", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0}))

	assert.Equal(t, 2, idx.Len())
	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	// "a" kept its original (earlier) insertion position.
	assert.Equal(t, "a", hits[0].ChunkID)
}

func TestDimensionMismatchRejected(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0, 0}))
	err := idx.Upsert(ctx, "b", []float32{1, 0})
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "b", []float32{0, 1}))
	require.NoError(t, idx.Delete(ctx, "a"))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ChunkID)

	// Deleting an unknown ID is a no-op.
	assert.NoError(t, idx.Delete(ctx, "missing"))
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "b", []float32{0, 1}))
	require.NoError(t, idx.Close())

	reloaded, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	hits, err := reloaded.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ChunkID)
}

func TestCorruptSnapshotLineSkipped(t *testing.T) {
	dir := t.TempDir()

	good := `{"chunk_id":"a","vector":[1,0]}`
	corrupt := `{"chunk_id":`
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, snapshotFile),
		[]byte(good+"\n"+corrupt+"\n"),
		0600,
	))

	idx, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}
