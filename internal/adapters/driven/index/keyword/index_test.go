package keyword

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

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, tokenize("Hello, World!"))
	// Stop words are dropped.
	assert.Equal(t, []string{"cat", "mat"}, tokenize("the cat on the mat"))
	// CJK runs split per rune.
	assert.Equal(t, []string{"筑", "基", "期"}, tokenize("筑基期"))
	// Mixed scripts.
	assert.Equal(t, []string{"level", "筑", "基"}, tokenize("level 筑基"))
}

func TestParseQuery(t *testing.T) {
	terms, phrases := parseQuery(`foo "exact phrase" bar`)
	assert.Equal(t, []string{"foo", "exact", "phrase", "bar"}, terms)
	assert.Equal(t, []string{"exact phrase"}, phrases)

	terms, phrases = parseQuery("no quotes here")
	assert.Empty(t, phrases)
	assert.Equal(t, []string{"no", "quotes", "here"}, terms)
}

func TestSearchRanksByRelevance(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "c1", "databases store records efficiently"))
	require.NoError(t, idx.Upsert(ctx, "c2", "databases databases databases everywhere"))
	require.NoError(t, idx.Upsert(ctx, "c3", "gardening tips and tricks"))

	hits, err := idx.Search(ctx, "databases", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c2", hits[0].ChunkID) // higher term frequency
	assert.Equal(t, "c1", hits[1].ChunkID)
}

func TestSearchNoFalsePositives(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "c1", "alpha beta gamma"))
	require.NoError(t, idx.Upsert(ctx, "c2", "delta epsilon zeta"))

	hits, err := idx.Search(ctx, "alpha", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestExactPhraseRanksFirst(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	// One chunk with the exact phrase, several with partial overlap.
	require.NoError(t, idx.Upsert(ctx, "exact", "修士进入筑基期之后实力大增"))
	require.NoError(t, idx.Upsert(ctx, "p1", "筑造房屋的方法"))
	require.NoError(t, idx.Upsert(ctx, "p2", "基础知识讲解"))
	require.NoError(t, idx.Upsert(ctx, "p3", "期末考试时间"))

	hits, err := idx.Search(ctx, "筑基期", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "exact", hits[0].ChunkID)
	assert.LessOrEqual(t, len(hits), 5)
}

func TestQuotedPhraseBoost(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "scattered", "quick fox and brown dog"))
	require.NoError(t, idx.Upsert(ctx, "adjacent", "the quick brown fox jumps"))

	hits, err := idx.Search(ctx, `"quick brown"`, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "adjacent", hits[0].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestTiesBrokenByChunkID(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "zzz", "identical content"))
	require.NoError(t, idx.Upsert(ctx, "aaa", "identical content"))

	hits, err := idx.Search(ctx, "identical content", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "aaa", hits[0].ChunkID)
	assert.Equal(t, "zzz", hits[1].ChunkID)
}

func TestDeleteRemovesChunk(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "c1", "searchable text"))
	require.NoError(t, idx.Delete(ctx, "c1"))

	hits, err := idx.Search(ctx, "searchable", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUpsertReplacesText(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "c1", "old content"))
	require.NoError(t, idx.Upsert(ctx, "c1", "new content"))

	hits, err := idx.Search(ctx, "old", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, "new", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, "c1", "persisted keyword content"))
	require.NoError(t, idx.Close())

	reloaded, err := New(dir)
	require.NoError(t, err)
	hits, err := reloaded.Search(ctx, "persisted", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestCorruptSnapshotLineSkipped(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	good := `{"chunk_id":"c1","text":"valid entry"}`
	corrupt := `{not json at all`
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, snapshotFile),
		[]byte(good+"\n"+corrupt+"\n"),
		0600,
	))

	idx, err := New(dir)
	require.NoError(t, err)
	hits, err := idx.Search(ctx, "valid", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}
