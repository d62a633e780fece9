// Package vector provides semantic similarity search over chunk
// embeddings using an in-process brute-force cosine index.
//
// Brute force keeps the index exact and dependency-free and handles
// tens of thousands of chunks from a single process. The index persists
// as a JSON-lines snapshot in its own directory; it is always
// reconstructable from chunk text plus the embedding backend and is
// never the sole source of truth.
package vector

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/openclaw/kbcore/internal/core/ports/driven"
	"github.com/openclaw/kbcore/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const snapshotFile = "vectors.jsonl"

// record is one stored vector. Slice order is insertion order, which
// breaks similarity ties deterministically (earlier wins).
type record struct {
	chunkID string
	vec     []float32
	norm    float64
}

// snapshotLine is the persisted form of a record.
type snapshotLine struct {
	ChunkID string    `json:"chunk_id"`
	Vector  []float32 `json:"vector"`
}

// Index is a brute-force cosine similarity index. Safe for concurrent
// use: readers proceed during writer upserts via RWMutex.
type Index struct {
	mu      sync.RWMutex
	path    string // persistence dir, empty for memory-only
	records []record
	byID    map[string]int // chunkID -> position in records
	dim     int            // fixed dimensionality, set by first vector
}

// New creates a vector index persisted under dir. An empty dir keeps
// the index memory-only. Corrupt persisted lines are skipped with a
// warning, never a failure.
func New(dir string) (*Index, error) {
	idx := &Index{
		path: dir,
		byID: make(map[string]int),
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating vector index dir: %w", err)
		}
		if err := idx.load(); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// Upsert inserts or replaces the vector for the given chunk ID. A
// replacement keeps the chunk's original insertion position.
func (idx *Index) Upsert(_ context.Context, chunkID string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("vector index: empty embedding for chunk %s", chunkID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dim == 0 {
		idx.dim = len(embedding)
	} else if len(embedding) != idx.dim {
		return fmt.Errorf("vector index: dimension mismatch for chunk %s: got %d, want %d",
			chunkID, len(embedding), idx.dim)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	rec := record{chunkID: chunkID, vec: vec, norm: norm(vec)}

	if pos, ok := idx.byID[chunkID]; ok {
		idx.records[pos] = rec
		return nil
	}
	idx.byID[chunkID] = len(idx.records)
	idx.records = append(idx.records, rec)
	return nil
}

// Delete removes a vector from the index. The relative insertion order
// of the remaining records is preserved.
func (idx *Index) Delete(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	pos, ok := idx.byID[chunkID]
	if !ok {
		return nil
	}
	idx.records = append(idx.records[:pos], idx.records[pos+1:]...)
	delete(idx.byID, chunkID)
	for i := pos; i < len(idx.records); i++ {
		idx.byID[idx.records[i].chunkID] = i
	}
	return nil
}

// Search returns the k most similar chunks ordered by descending
// similarity, ties broken by insertion order (earlier wins). Cosine
// similarity is mapped to [0,1] via (cos+1)/2.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	qnorm := norm(query)
	if qnorm == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		pos int
		sim float64
	}
	results := make([]scored, 0, len(idx.records))
	for pos, rec := range idx.records {
		if len(rec.vec) != len(query) || rec.norm == 0 {
			continue
		}
		cos := dot(query, rec.vec) / (qnorm * rec.norm)
		sim := (cos + 1) / 2
		if sim < 0 {
			sim = 0
		} else if sim > 1 {
			sim = 1
		}
		results = append(results, scored{pos: pos, sim: sim})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].sim != results[j].sim {
			return results[i].sim > results[j].sim
		}
		return results[i].pos < results[j].pos
	})

	if len(results) > k {
		results = results[:k]
	}
	hits := make([]driven.VectorHit, len(results))
	for i, r := range results {
		hits[i] = driven.VectorHit{ChunkID: idx.records[r.pos].chunkID, Similarity: r.sim}
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// Close writes the snapshot and releases resources.
func (idx *Index) Close() error {
	if idx.path == "" {
		return nil
	}
	return idx.save()
}

// load restores records from the snapshot, preserving insertion order.
func (idx *Index) load() error {
	f, err := os.Open(filepath.Join(idx.path, snapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening vector snapshot: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		var line snapshotLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil || line.ChunkID == "" || len(line.Vector) == 0 {
			logger.Warn("vector index: skipping corrupt snapshot line %d", lineNo)
			continue
		}
		if idx.dim == 0 {
			idx.dim = len(line.Vector)
		} else if len(line.Vector) != idx.dim {
			logger.Warn("vector index: skipping snapshot line %d: dimension mismatch", lineNo)
			continue
		}
		idx.byID[line.ChunkID] = len(idx.records)
		idx.records = append(idx.records, record{
			chunkID: line.ChunkID,
			vec:     line.Vector,
			norm:    norm(line.Vector),
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading vector snapshot: %w", err)
	}

	logger.Debug("vector index: loaded %d vectors", len(idx.records))
	return nil
}

// save writes the snapshot atomically (write-then-rename), preserving
// insertion order so reloads keep tie-break determinism.
func (idx *Index) save() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tmp := filepath.Join(idx.path, snapshotFile+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating vector snapshot: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range idx.records {
		if err := enc.Encode(snapshotLine{ChunkID: rec.chunkID, Vector: rec.vec}); err != nil {
			f.Close()
			return fmt.Errorf("writing vector snapshot: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing vector snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing vector snapshot: %w", err)
	}
	return os.Rename(tmp, filepath.Join(idx.path, snapshotFile))
}

// dot returns the dot product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// norm returns the Euclidean norm.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
