package keyword

import (
	"strings"
	"unicode"
)

// stopWords are filtered from both indexed text and queries.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {},
}

// tokenize case-folds text and splits it into terms: letter/digit runs
// for alphabetic scripts, single runes for CJK (which has no word
// separators). Stop words are dropped.
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder

	flush := func() {
		if word.Len() == 0 {
			return
		}
		t := word.String()
		word.Reset()
		if _, stop := stopWords[t]; !stop {
			tokens = append(tokens, t)
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// isCJK reports whether the rune belongs to a script written without
// word separators.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// parseQuery splits a raw query into its terms and any quoted phrases.
// Phrase text is also tokenized into the term list so phrase-only
// queries still match the inverted index.
func parseQuery(raw string) (terms []string, phrases []string) {
	var rest strings.Builder
	for {
		open := strings.IndexByte(raw, '"')
		if open < 0 {
			rest.WriteString(raw)
			break
		}
		closeQ := strings.IndexByte(raw[open+1:], '"')
		if closeQ < 0 {
			rest.WriteString(raw)
			break
		}
		phrase := raw[open+1 : open+1+closeQ]
		if strings.TrimSpace(phrase) != "" {
			phrases = append(phrases, phrase)
		}
		rest.WriteString(raw[:open])
		rest.WriteString(" ")
		rest.WriteString(phrase)
		rest.WriteString(" ")
		raw = raw[open+closeQ+2:]
	}
	return tokenize(rest.String()), phrases
}
