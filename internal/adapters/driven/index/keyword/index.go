// Package keyword provides full-text search over tokenised chunk text
// using an in-process inverted index with TF-IDF scoring.
//
// The index persists the raw chunk text as a JSON-lines snapshot in its
// own directory and rebuilds the inverted structure from that text at
// load time, so the persisted form stays trivially recoverable.
package keyword

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/openclaw/kbcore/internal/core/ports/driven"
	"github.com/openclaw/kbcore/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.SearchEngine = (*Index)(nil)

// PhraseBoost is the score multiplier for chunks containing an exact
// quoted phrase from the query.
const PhraseBoost = 2.0

const snapshotFile = "chunks.jsonl"

// entry is one indexed chunk.
type entry struct {
	text  string
	terms map[string]int // term -> frequency
}

// snapshotLine is the persisted form of an entry.
type snapshotLine struct {
	ChunkID string `json:"chunk_id"`
	Text    string `json:"text"`
}

// Index is an inverted keyword index. Safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	path     string // persistence dir, empty for memory-only
	entries  map[string]entry
	postings map[string]map[string]int // term -> chunkID -> tf
}

// New creates a keyword index persisted under dir. An empty dir keeps
// the index memory-only. Corrupt persisted lines are skipped with a
// warning, never a failure.
func New(dir string) (*Index, error) {
	idx := &Index{
		path:     dir,
		entries:  make(map[string]entry),
		postings: make(map[string]map[string]int),
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating keyword index dir: %w", err)
		}
		if err := idx.load(); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// Upsert adds or replaces a chunk's text in the index.
func (idx *Index) Upsert(_ context.Context, chunkID, text string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(chunkID)

	terms := make(map[string]int)
	for _, t := range tokenize(text) {
		terms[t]++
	}

	idx.entries[chunkID] = entry{text: text, terms: terms}
	for t, tf := range terms {
		posting, ok := idx.postings[t]
		if !ok {
			posting = make(map[string]int)
			idx.postings[t] = posting
		}
		posting[chunkID] = tf
	}

	return nil
}

// Delete removes a chunk from the index.
func (idx *Index) Delete(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(chunkID)
	return nil
}

// removeLocked drops a chunk's entry and postings. Caller holds the lock.
func (idx *Index) removeLocked(chunkID string) {
	e, ok := idx.entries[chunkID]
	if !ok {
		return
	}
	for t := range e.terms {
		delete(idx.postings[t], chunkID)
		if len(idx.postings[t]) == 0 {
			delete(idx.postings, t)
		}
	}
	delete(idx.entries, chunkID)
}

// Search returns up to k chunks ranked by TF-IDF relevance. Chunks
// containing an exact quoted phrase receive a PhraseBoost multiplier.
// Ties are broken by chunk ID (lexical) for determinism.
func (idx *Index) Search(_ context.Context, query string, k int) ([]driven.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}

	terms, phrases := parseQuery(query)
	if len(terms) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	total := len(idx.entries)
	if total == 0 {
		return nil, nil
	}

	scores := make(map[string]float64)
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}

		posting, ok := idx.postings[t]
		if !ok {
			continue
		}
		idf := math.Log(1 + float64(total)/float64(1+len(posting)))
		for chunkID, tf := range posting {
			scores[chunkID] += float64(tf) * idf
		}
	}

	for chunkID := range scores {
		text := strings.ToLower(idx.entries[chunkID].text)
		for _, phrase := range phrases {
			if strings.Contains(text, strings.ToLower(phrase)) {
				scores[chunkID] *= PhraseBoost
				break
			}
		}
	}

	hits := make([]driven.SearchHit, 0, len(scores))
	for chunkID, score := range scores {
		hits = append(hits, driven.SearchHit{ChunkID: chunkID, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close writes the snapshot and releases resources.
func (idx *Index) Close() error {
	if idx.path == "" {
		return nil
	}
	return idx.save()
}

// load rebuilds the inverted index from the persisted chunk text.
func (idx *Index) load() error {
	f, err := os.Open(filepath.Join(idx.path, snapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening keyword snapshot: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		var line snapshotLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil || line.ChunkID == "" {
			logger.Warn("keyword index: skipping corrupt snapshot line %d", lineNo)
			continue
		}
		// Upsert without the lock: load runs before the index is shared.
		terms := make(map[string]int)
		for _, t := range tokenize(line.Text) {
			terms[t]++
		}
		idx.entries[line.ChunkID] = entry{text: line.Text, terms: terms}
		for t, tf := range terms {
			posting, ok := idx.postings[t]
			if !ok {
				posting = make(map[string]int)
				idx.postings[t] = posting
			}
			posting[line.ChunkID] = tf
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading keyword snapshot: %w", err)
	}

	logger.Debug("keyword index: loaded %d chunks", len(idx.entries))
	return nil
}

// save writes the snapshot atomically (write-then-rename).
func (idx *Index) save() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tmp := filepath.Join(idx.path, snapshotFile+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating keyword snapshot: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	ids := make([]string, 0, len(idx.entries))
	for id := range idx.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := enc.Encode(snapshotLine{ChunkID: id, Text: idx.entries[id].text}); err != nil {
			f.Close()
			return fmt.Errorf("writing keyword snapshot: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing keyword snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing keyword snapshot: %w", err)
	}
	return os.Rename(tmp, filepath.Join(idx.path, snapshotFile))
}
