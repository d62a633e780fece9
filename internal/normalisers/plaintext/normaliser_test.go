package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/kbcore/internal/core/domain"
)

func TestLineGroupsPackIntoChunks(t *testing.T) {
	content := "first paragraph here\n\nsecond paragraph here\n\nthird paragraph here"

	n := New(WithMaxTokens(6))
	result, err := n.Normalise(context.Background(), &domain.RawDocument{
		Path: "notes.txt", Content: content, Format: domain.FormatText,
	})
	require.NoError(t, err)

	// Two 3-token paragraphs fit a chunk; the third starts a new one.
	require.Len(t, result.Chunks, 2)
	assert.Equal(t, 0, result.Chunks[0].Ordinal)
	assert.Equal(t, 1, result.Chunks[1].Ordinal)
}

func TestDeterministicIDs(t *testing.T) {
	content := "alpha\n\nbeta"
	n := New()

	first, err := n.Normalise(context.Background(), &domain.RawDocument{
		Path: "a.txt", Content: content, Format: domain.FormatText,
	})
	require.NoError(t, err)
	second, err := n.Normalise(context.Background(), &domain.RawDocument{
		Path: "a.txt", Content: content, Format: domain.FormatText,
	})
	require.NoError(t, err)

	require.Len(t, second.Chunks, len(first.Chunks))
	for i := range first.Chunks {
		assert.Equal(t, first.Chunks[i].ID, second.Chunks[i].ID)
	}
	assert.Equal(t, first.Document.ID, second.Document.ID)
}

func TestOversizeGroupIsSplit(t *testing.T) {
	content := strings.Repeat("word ", 200)

	n := New(WithMaxTokens(40))
	result, err := n.Normalise(context.Background(), &domain.RawDocument{
		Path: "big.txt", Content: content, Format: domain.FormatText,
	})
	require.NoError(t, err)
	assert.Greater(t, len(result.Chunks), 1)
}

func TestEmptyDocumentRejected(t *testing.T) {
	n := New()
	_, err := n.Normalise(context.Background(), &domain.RawDocument{
		Path: "empty.txt", Content: "", Format: domain.FormatText,
	})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestNilInputRejected(t *testing.T) {
	n := New()
	_, err := n.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
