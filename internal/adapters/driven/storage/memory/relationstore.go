package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openclaw/kbcore/internal/core/domain"
	"github.com/openclaw/kbcore/internal/core/ports/driven"
)

// Ensure RelationStore implements the interface.
var _ driven.RelationStore = (*RelationStore)(nil)

// RelationStore is an in-memory implementation of driven.RelationStore.
type RelationStore struct {
	mu    sync.RWMutex
	edges []domain.RelationEdge
}

// NewRelationStore creates a new in-memory relation store.
func NewRelationStore() *RelationStore {
	return &RelationStore{}
}

// ReplaceAll atomically replaces the stored edge set.
func (s *RelationStore) ReplaceAll(_ context.Context, edges []domain.RelationEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = make([]domain.RelationEdge, len(edges))
	copy(s.edges, edges)
	return nil
}

// ListEdges returns all stored edges.
func (s *RelationStore) ListEdges(_ context.Context) ([]domain.RelationEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.RelationEdge, len(s.edges))
	copy(result, s.edges)
	return result, nil
}

// EdgesFor returns edges touching the given document, ordered by
// descending similarity.
func (s *RelationStore) EdgesFor(_ context.Context, docID string) ([]domain.RelationEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.RelationEdge
	for _, e := range s.edges {
		if e.Touches(docID) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Similarity > result[j].Similarity })
	return result, nil
}

// DeleteFor removes every edge touching the given document.
func (s *RelationStore) DeleteFor(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.edges[:0]
	for _, e := range s.edges {
		if !e.Touches(docID) {
			kept = append(kept, e)
		}
	}
	s.edges = kept
	return nil
}
