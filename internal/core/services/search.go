package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/openclaw/kbcore/internal/core/domain"
	"github.com/openclaw/kbcore/internal/core/ports/driven"
	"github.com/openclaw/kbcore/internal/core/ports/driving"
	"github.com/openclaw/kbcore/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Default fusion weights. Vector similarity carries more signal than
// raw term overlap, so it gets the larger share.
const (
	DefaultVectorWeight  = 0.6
	DefaultKeywordWeight = 0.4
	DefaultLimit         = 10

	// DefaultQueryTimeout bounds a whole query, including the query
	// embedding call.
	DefaultQueryTimeout = 15 * time.Second
)

// scoredChunk holds one candidate before hydration. Normalised scores
// from each sub-index land here and are fused into a single score.
type scoredChunk struct {
	chunkID string
	vector  float64
	keyword float64
	sources int  // bitmask: 1 vector, 2 keyword
	fused   bool // candidate was ranked by the weighted sum
}

const (
	fromVector  = 1
	fromKeyword = 2
)

// SearchService provides hybrid search over the keyword and vector
// indexes.
type SearchService struct {
	docStore     driven.DocumentStore
	keywordIndex driven.SearchEngine
	vectorIndex  driven.VectorIndex
	embedder     driven.EmbeddingService

	vectorWeight  float64
	keywordWeight float64
	defaultLimit  int
	queryTimeout  time.Duration
}

// NewSearchService creates a new search service. The vectorIndex and
// embedder parameters may be nil, in which case semantic search is
// unavailable and hybrid queries degrade to keyword-only.
func NewSearchService(
	docStore driven.DocumentStore,
	keywordIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *SearchService {
	return &SearchService{
		docStore:      docStore,
		keywordIndex:  keywordIndex,
		vectorIndex:   vectorIndex,
		embedder:      embedder,
		vectorWeight:  DefaultVectorWeight,
		keywordWeight: DefaultKeywordWeight,
		defaultLimit:  DefaultLimit,
		queryTimeout:  DefaultQueryTimeout,
	}
}

// SetWeights overrides the fusion weights. Weights are relative, not
// required to sum to 1.
func (s *SearchService) SetWeights(vector, keyword float64) {
	if vector > 0 {
		s.vectorWeight = vector
	}
	if keyword > 0 {
		s.keywordWeight = keyword
	}
}

// SetDefaultLimit overrides the result count used when a query does not
// set one.
func (s *SearchService) SetDefaultLimit(limit int) {
	if limit > 0 {
		s.defaultLimit = limit
	}
}

// Search executes a query in the requested mode.
func (s *SearchService) Search(ctx context.Context, query domain.Query) (*domain.ResultSet, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q mode=%s limit=%d", query.Text, query.Mode, query.Limit)

	text := strings.TrimSpace(query.Text)
	if text == "" {
		logger.Debug("Empty query, returning no results")
		return &domain.ResultSet{Results: []domain.RankedResult{}}, nil
	}

	mode := query.Mode
	if mode == "" {
		mode = domain.ModeHybrid
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown query mode %q", domain.ErrInvalidInput, query.Mode)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	// Over-fetch so fusion and hydration drop-outs still fill the page.
	internalLimit := limit * 2

	var (
		chunks   []scoredChunk
		warnings []domain.Warning
		err      error
	)

	switch mode {
	case domain.ModeKeyword:
		chunks, err = s.keywordSearch(ctx, text, internalLimit)
	case domain.ModeSemantic:
		chunks, err = s.vectorSearch(ctx, text, internalLimit)
	case domain.ModeHybrid:
		chunks, warnings, err = s.hybridSearch(ctx, text, internalLimit)
	}
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, err
	}

	results, err := s.hydrateResults(ctx, chunks, text)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	logger.Info("Final results: %d", len(results))

	return &domain.ResultSet{Results: results, Warnings: warnings}, nil
}

// keywordSearch queries the inverted index and normalises scores.
func (s *SearchService) keywordSearch(ctx context.Context, text string, limit int) ([]scoredChunk, error) {
	if s.keywordIndex == nil {
		return nil, domain.ErrKeywordIndexUnavailable
	}

	hits, err := s.keywordIndex.Search(ctx, text, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	logger.Debug("Keyword search: %d hits", len(hits))

	scores := make([]float64, len(hits))
	for i, hit := range hits {
		scores[i] = hit.Score
	}
	normalise(scores)

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = scoredChunk{chunkID: hit.ChunkID, keyword: scores[i], sources: fromKeyword}
	}
	return results, nil
}

// vectorSearch embeds the query and searches the vector index.
func (s *SearchService) vectorSearch(ctx context.Context, text string, limit int) ([]scoredChunk, error) {
	if s.vectorIndex == nil || s.embedder == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	hits, err := s.vectorIndex.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	scores := make([]float64, len(hits))
	for i, hit := range hits {
		scores[i] = hit.Similarity
	}
	normalise(scores)

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = scoredChunk{chunkID: hit.ChunkID, vector: scores[i], sources: fromVector}
	}
	return results, nil
}

// hybridSearch runs both sub-searches in parallel and fuses the ranked
// lists with a weighted sum. One failed sub-index degrades the result
// set with a warning; both failing makes the query unanswerable.
func (s *SearchService) hybridSearch(
	ctx context.Context, text string, limit int,
) ([]scoredChunk, []domain.Warning, error) {
	var keywordResults, vectorResults []scoredChunk
	var keywordErr, vectorErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		keywordResults, keywordErr = s.keywordSearch(ctx, text, limit)
	}()

	go func() {
		defer wg.Done()
		vectorResults, vectorErr = s.vectorSearch(ctx, text, limit)
	}()

	wg.Wait()

	if keywordErr != nil && vectorErr != nil {
		logger.Warn("Hybrid search: both sub-indexes failed")
		return nil, nil, fmt.Errorf("%w: keyword: %v, vector: %v",
			domain.ErrSearchUnavailable, keywordErr, vectorErr)
	}

	if vectorErr != nil {
		logger.Warn("Hybrid search: vector side failed, keyword results only: %v", vectorErr)
		return keywordResults, []domain.Warning{domain.WarningDegradedMode}, nil
	}

	if keywordErr != nil {
		logger.Warn("Hybrid search: keyword side failed, vector results only: %v", keywordErr)
		return vectorResults, []domain.Warning{domain.WarningDegradedMode}, nil
	}

	merged := s.fuse(vectorResults, keywordResults)
	logger.Debug("Hybrid search: fused %d vector + %d keyword into %d results",
		len(vectorResults), len(keywordResults), len(merged))

	return merged, nil, nil
}

// fuse merges the two normalised candidate lists with a weighted sum.
// Chunks found by both sides accumulate both contributions.
func (s *SearchService) fuse(vector, keyword []scoredChunk) []scoredChunk {
	byID := make(map[string]scoredChunk, len(vector)+len(keyword))

	for _, c := range vector {
		byID[c.chunkID] = c
	}
	for _, c := range keyword {
		if existing, ok := byID[c.chunkID]; ok {
			existing.keyword = c.keyword
			existing.sources |= fromKeyword
			byID[c.chunkID] = existing
			continue
		}
		byID[c.chunkID] = c
	}

	results := make([]scoredChunk, 0, len(byID))
	for _, c := range byID {
		c.fused = true
		results = append(results, c)
	}

	sort.Slice(results, func(i, j int) bool {
		si, sj := s.fusedScore(results[i]), s.fusedScore(results[j])
		if si != sj {
			return si > sj
		}
		return results[i].chunkID < results[j].chunkID
	})

	return results
}

// fusedScore computes the weighted combination of the normalised
// sub-scores.
func (s *SearchService) fusedScore(c scoredChunk) float64 {
	return s.vectorWeight*c.vector + s.keywordWeight*c.keyword
}

// hydrateResults converts candidates to full ranked results. Chunk IDs
// the store does not know are skipped: they belong to uncommitted or
// removed documents.
func (s *SearchService) hydrateResults(
	ctx context.Context, chunks []scoredChunk, query string,
) ([]domain.RankedResult, error) {
	if s.docStore == nil {
		return nil, errors.New("document store unavailable")
	}

	results := make([]domain.RankedResult, 0, len(chunks))
	for _, sc := range chunks {
		chunk, err := s.docStore.GetChunk(ctx, sc.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", sc.chunkID, err)
		}

		results = append(results, domain.RankedResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Score:      s.scoreFor(sc),
			Snippet:    makeSnippet(chunk.Text, query),
			Source:     sourceFor(sc.sources),
		})
	}

	return results, nil
}

// scoreFor maps a candidate to its final score. Fused candidates report
// the same weighted sum they were ranked by, scaled to [0,1], so scores
// never increase down a hybrid result page. Candidates from a single
// index (keyword/semantic modes, degraded hybrid) keep their normalised
// sub-score.
func (s *SearchService) scoreFor(c scoredChunk) float64 {
	if !c.fused {
		switch c.sources {
		case fromVector:
			return c.vector
		case fromKeyword:
			return c.keyword
		}
	}
	score := s.fusedScore(c) / (s.vectorWeight + s.keywordWeight)
	if score > 1 {
		score = 1
	}
	return score
}

// sourceFor maps the source bitmask to the result source label.
func sourceFor(mask int) domain.ResultSource {
	switch mask {
	case fromVector:
		return domain.SourceVector
	case fromKeyword:
		return domain.SourceKeyword
	}
	return domain.SourceBoth
}

// normalise rescales scores to [0,1] with min-max normalisation, in
// place. A constant list maps to all ones so a lone hit still ranks.
func normalise(scores []float64) {
	if len(scores) == 0 {
		return
	}
	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == minScore {
		for i := range scores {
			scores[i] = 1
		}
		return
	}
	span := maxScore - minScore
	for i := range scores {
		scores[i] = (scores[i] - minScore) / span
	}
}

// makeSnippet returns a short excerpt around the first sentence that
// contains a query term, falling back to the chunk head.
func makeSnippet(content, query string) string {
	const maxSnippet = 200

	queryTerms := strings.Fields(strings.ToLower(query))
	for _, sentence := range splitSentences(content) {
		sentenceLower := strings.ToLower(sentence)
		for _, term := range queryTerms {
			if strings.Contains(sentenceLower, strings.Trim(term, `"`)) {
				return truncateSnippet(sentence, maxSnippet)
			}
		}
	}

	return truncateSnippet(strings.TrimSpace(content), maxSnippet)
}

// truncateSnippet caps a snippet at limit bytes on a rune boundary.
func truncateSnippet(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// splitSentences splits content at common terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' || r == '。' || r == '！' || r == '？' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
