package domain

// QueryMode selects which indexes a search consults.
type QueryMode string

const (
	// ModeSemantic searches the vector index only.
	ModeSemantic QueryMode = "semantic"

	// ModeKeyword searches the keyword index only.
	ModeKeyword QueryMode = "keyword"

	// ModeHybrid fuses vector and keyword results.
	ModeHybrid QueryMode = "hybrid"
)

// Valid reports whether the mode is one of the known query modes.
func (m QueryMode) Valid() bool {
	switch m {
	case ModeSemantic, ModeKeyword, ModeHybrid:
		return true
	}
	return false
}

// Query describes a single search request.
type Query struct {
	// Text is the raw query string. Quoted phrases ("...") receive
	// exact-phrase boosting in keyword mode.
	Text string

	// Mode selects semantic, keyword or hybrid search.
	// Defaults to hybrid when empty.
	Mode QueryMode

	// Limit is the maximum number of results (default 10).
	Limit int
}

// ResultSource identifies which index produced a ranked result.
type ResultSource string

const (
	// SourceVector marks a result found only by the vector index.
	SourceVector ResultSource = "vector"

	// SourceKeyword marks a result found only by the keyword index.
	SourceKeyword ResultSource = "keyword"

	// SourceBoth marks a result found by both indexes.
	SourceBoth ResultSource = "both"
)

// RankedResult is a single search hit.
type RankedResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// Score is the relevance score normalised to [0,1].
	Score float64

	// Snippet is a short excerpt around the matched terms.
	Snippet string

	// Source reports which index produced the hit.
	Source ResultSource
}

// Warning is a non-fatal signal attached to otherwise successful results.
type Warning string

// WarningDegradedMode marks a result set produced with one sub-index
// unavailable. The results are valid but of reduced quality.
const WarningDegradedMode Warning = "degraded mode: one search index was unavailable"

// ResultSet is the outcome of a search: the ranked results plus any
// warnings raised while producing them.
type ResultSet struct {
	// Results is ordered by non-increasing score.
	Results []RankedResult

	// Warnings holds non-fatal signals such as WarningDegradedMode.
	Warnings []Warning
}

// Degraded reports whether the set carries the degraded-mode warning.
func (rs *ResultSet) Degraded() bool {
	for _, w := range rs.Warnings {
		if w == WarningDegradedMode {
			return true
		}
	}
	return false
}
