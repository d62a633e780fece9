// Package markdown normalises markdown documents into chunks, splitting
// at heading and paragraph boundaries and never inside a code fence.
package markdown

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

// Normaliser handles markdown documents.
type Normaliser struct {
	maxTokens int
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithMaxTokens sets the maximum tokens per chunk.
func WithMaxTokens(n int) Option {
	return func(m *Normaliser) {
		if n > 0 {
			m.maxTokens = n
		}
	}
}

// New creates a markdown normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{maxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Format returns the source format this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatMarkdown
}

// Normalise splits markdown content into chunks. Each heading starts a
// new chunk; paragraphs within a section accumulate up to the token
// bound; fenced code blocks are kept whole even when oversized.
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
		Title:      extractTitle(raw.Content, raw.Path),
		Format:     domain.FormatMarkdown,
		IngestedAt: time.Now(),
	}

	spans := assemble(parseBlocks(raw.Content), n.maxTokens)
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

// block is a paragraph, heading or fenced code segment.
type block struct {
	text    string
	heading bool
	fence   bool
}

// parseBlocks splits markdown into blocks. Fenced code is one block
// regardless of blank lines inside it.
func parseBlocks(content string) []block {
	var blocks []block
	var cur []string
	inFence := false
	fenceMarker := ""

	flush := func() {
		text := strings.TrimSpace(strings.Join(cur, "\n"))
		if text != "" {
			blocks = append(blocks, block{text: text, fence: inFence})
		}
		cur = cur[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if inFence {
			cur = append(cur, line)
			if strings.HasPrefix(trimmed, fenceMarker) {
				flush()
				inFence = false
			}
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			flush()
			inFence = true
			fenceMarker = trimmed[:3]
			cur = append(cur, line)
		case isHeading(trimmed):
			flush()
			blocks = append(blocks, block{text: trimmed, heading: true})
		case trimmed == "":
			flush()
		default:
			cur = append(cur, line)
		}
	}
	// An unterminated fence still flushes as a fence block.
	flush()

	return blocks
}

// assemble groups blocks into chunk texts bounded by maxTokens. Headings
// start a new chunk; oversized non-fence blocks are hard-split.
func assemble(blocks []block, maxTokens int) []string {
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

	for _, b := range blocks {
		bt := normalisers.TokenCount(b.text)

		if b.heading && len(cur) > 0 {
			flush()
		}

		if bt > maxTokens && !b.fence {
			flush()
			spans = append(spans, normalisers.SplitOversize(b.text, maxTokens)...)
			continue
		}

		if tokens+bt > maxTokens && len(cur) > 0 {
			flush()
		}
		cur = append(cur, b.text)
		tokens += bt
	}
	flush()

	return spans
}

// isHeading reports whether the line is an ATX heading (# to ######).
func isHeading(line string) bool {
	if !strings.HasPrefix(line, "#") {
		return false
	}
	rest := strings.TrimLeft(line, "#")
	return len(line)-len(rest) <= 6 && strings.HasPrefix(rest, " ")
}

// extractTitle takes the first H1 heading, falling back to the filename.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	filename := filepath.Base(path)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
