package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/openclaw/kbcore/internal/core/domain"
	"github.com/openclaw/kbcore/internal/core/ports/driven"
	"github.com/openclaw/kbcore/internal/core/ports/driving"
	"github.com/openclaw/kbcore/internal/logger"
)

// Ensure LinkerService implements the interface.
var _ driving.LinkerService = (*LinkerService)(nil)

// DefaultLinkThreshold is the minimum centroid cosine similarity for an
// edge to be emitted.
const DefaultLinkThreshold = 0.75

// LinkerService discovers similarity edges between documents by
// comparing per-document embedding centroids. It runs as a batch job,
// never on the query path.
//
// Discovery is quadratic over documents, which holds up to corpora in
// the low thousands. Beyond that the pairwise loop needs ANN bucketing.
type LinkerService struct {
	docStore      driven.DocumentStore
	relationStore driven.RelationStore

	now func() time.Time
}

// NewLinkerService creates a new linker service.
func NewLinkerService(docStore driven.DocumentStore, relationStore driven.RelationStore) *LinkerService {
	return &LinkerService{
		docStore:      docStore,
		relationStore: relationStore,
		now:           time.Now,
	}
}

// DiscoverLinks recomputes the relation edge set for the current
// corpus. Documents without any embedded chunk are skipped; they have
// no centroid to compare.
func (s *LinkerService) DiscoverLinks(ctx context.Context, threshold float64) ([]domain.RelationEdge, error) {
	logger.Section("Link Discovery")

	if threshold <= 0 {
		threshold = DefaultLinkThreshold
	}

	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docCentroid struct {
		id       string
		centroid []float64
	}

	centroids := make([]docCentroid, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunks, err := s.docStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("loading chunks for %s: %w", doc.ID, err)
		}

		centroid := computeCentroid(chunks)
		if centroid == nil {
			logger.Debug("Skipping %s: no embedded chunks", doc.ID)
			continue
		}
		centroids = append(centroids, docCentroid{id: doc.ID, centroid: centroid})
	}

	logger.Debug("Comparing %d centroid(s) at threshold %.2f", len(centroids), threshold)

	now := s.now().UTC()
	var edges []domain.RelationEdge
	for i := 0; i < len(centroids); i++ {
		for j := i + 1; j < len(centroids); j++ {
			sim := cosine(centroids[i].centroid, centroids[j].centroid)
			if sim >= threshold {
				edges = append(edges, domain.NewRelationEdge(centroids[i].id, centroids[j].id, sim, now))
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].DocA != edges[j].DocA {
			return edges[i].DocA < edges[j].DocA
		}
		return edges[i].DocB < edges[j].DocB
	})

	if err := s.relationStore.ReplaceAll(ctx, edges); err != nil {
		return nil, fmt.Errorf("storing edges: %w", err)
	}

	logger.Info("Discovered %d edge(s)", len(edges))
	return edges, nil
}

// Related returns up to limit documents linked to docID, ordered by
// descending similarity.
func (s *LinkerService) Related(ctx context.Context, docID string, limit int) ([]domain.RelationEdge, error) {
	if _, err := s.docStore.GetDocument(ctx, docID); err != nil {
		return nil, err
	}

	edges, err := s.relationStore.EdgesFor(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}

	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}
	return edges, nil
}

// computeCentroid averages the embedded chunk vectors. Chunks without
// an embedding are ignored; nil means none carried one.
func computeCentroid(chunks []domain.Chunk) []float64 {
	var centroid []float64
	var count int

	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		if centroid == nil {
			centroid = make([]float64, len(c.Embedding))
		}
		if len(c.Embedding) != len(centroid) {
			continue
		}
		for i, v := range c.Embedding {
			centroid[i] += float64(v)
		}
		count++
	}

	if count == 0 {
		return nil
	}
	for i := range centroid {
		centroid[i] /= float64(count)
	}
	return centroid
}

// cosine computes raw cosine similarity in [-1,1]. Zero vectors yield
// zero similarity.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
