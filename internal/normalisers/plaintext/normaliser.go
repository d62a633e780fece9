// Package plaintext normalises plain text documents into chunks at
// blank-line group boundaries.
package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/openclaw/kbcore/internal/core/domain"
	"github.com/openclaw/kbcore/internal/core/ports/driven"
	"github.com/openclaw/kbcore/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// DefaultMaxTokens is the default chunk size bound.
const DefaultMaxTokens = 320

// Normaliser handles plain text documents.
type Normaliser struct {
	maxTokens int
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithMaxTokens sets the maximum tokens per chunk.
func WithMaxTokens(n int) Option {
	return func(p *Normaliser) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// New creates a plain text normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{maxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Format returns the source format this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatText
}

// Normalise splits plain text into chunks. Line groups separated by
// blank lines accumulate up to the token bound; oversized groups are
// hard-split at word boundaries.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if strings.TrimSpace(raw.Content) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, raw.Path)
	}

	docID := normalisers.DocumentID(raw.Path)
	doc := domain.Document{
		ID:         docID,
		Path:       raw.Path,
		Title:      titleFromPath(raw.Path),
		Format:     domain.FormatText,
		IngestedAt: time.Now(),
	}

	spans := group(raw.Content, n.maxTokens)
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, text := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:         normalisers.ChunkID(docID, i, text),
			DocumentID: docID,
			Ordinal:    i,
			Text:       text,
		})
	}

	return &driven.NormaliseResult{Document: doc, Chunks: chunks}, nil
}

// group splits content into blank-line separated line groups and packs
// them into spans bounded by maxTokens.
func group(content string, maxTokens int) []string {
	var spans []string
	var cur []string
	tokens := 0

	flush := func() {
		if len(cur) > 0 {
			spans = append(spans, strings.Join(cur, "\n\n"))
			cur = cur[:0]
			tokens = 0
		}
	}

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		pt := normalisers.TokenCount(para)
		if pt > maxTokens {
			flush()
			spans = append(spans, normalisers.SplitOversize(para, maxTokens)...)
			continue
		}

		if tokens+pt > maxTokens && len(cur) > 0 {
			flush()
		}
		cur = append(cur, para)
		tokens += pt
	}
	flush()

	return spans
}

// titleFromPath derives a display title from the filename.
func titleFromPath(path string) string {
	filename := filepath.Base(path)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
