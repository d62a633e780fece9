package normalisers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// idLen is the hex length of derived identifiers (64 bits of hash).
const idLen = 16

// DocumentID derives a stable document identifier from the source path.
// Re-ingesting the same path yields the same ID, so a re-ingest replaces
// the previous version wholesale.
func DocumentID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])[:idLen]
}

// ChunkID derives a stable chunk identifier from the parent document,
// the chunk's ordinal and its text. Identical content re-ingested yields
// identical chunk IDs, which keeps re-indexing idempotent.
func ChunkID(docID string, ordinal int, text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", docID, ordinal, text)))
	return hex.EncodeToString(sum[:])[:idLen]
}

// TokenCount approximates the token count of a text span: each
// whitespace-delimited word counts once, and each CJK rune counts on its
// own since CJK text carries no word separators.
func TokenCount(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		switch {
		case isCJK(r):
			count++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count
}

// SplitOversize splits a text span that exceeds maxTokens into pieces of
// at most maxTokens each, breaking at whitespace where possible and at
// rune boundaries in unbroken (CJK) runs.
func SplitOversize(s string, maxTokens int) []string {
	if maxTokens <= 0 || TokenCount(s) <= maxTokens {
		return []string{s}
	}

	var pieces []string
	var cur strings.Builder
	tokens := 0
	inWord := false

	flush := func() {
		if p := strings.TrimSpace(cur.String()); p != "" {
			pieces = append(pieces, p)
		}
		cur.Reset()
		tokens = 0
		inWord = false
	}

	for _, r := range s {
		switch {
		case isCJK(r):
			if tokens >= maxTokens {
				flush()
			}
			cur.WriteRune(r)
			tokens++
			inWord = false
		case unicode.IsSpace(r):
			if tokens >= maxTokens {
				flush()
				continue
			}
			cur.WriteRune(r)
			inWord = false
		default:
			if !inWord {
				// Word boundary: safe point to cut.
				if tokens >= maxTokens {
					flush()
				}
				tokens++
				inWord = true
			}
			cur.WriteRune(r)
		}
	}
	flush()

	return pieces
}

// isCJK reports whether the rune belongs to a script written without
// word separators (Han, Hiragana, Katakana, Hangul).
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
