package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openclaw/kbcore/internal/core/domain"
	"github.com/openclaw/kbcore/internal/core/ports/driven"
	"github.com/openclaw/kbcore/internal/core/ports/driving"
	"github.com/openclaw/kbcore/internal/logger"
	"github.com/openclaw/kbcore/internal/normalisers"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the ingest pipeline: normalise, embed, index.
type IngestService struct {
	registry      *normalisers.Registry
	embedder      driven.EmbeddingService
	vectorIndex   driven.VectorIndex
	keywordIndex  driven.SearchEngine
	docStore      driven.DocumentStore
	relationStore driven.RelationStore

	now func() time.Time
}

// NewIngestService creates a new ingest service. The embedder may be
// nil; documents then enter the keyword index only and are marked
// vector-incomplete.
func NewIngestService(
	registry *normalisers.Registry,
	embedder driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	keywordIndex driven.SearchEngine,
	docStore driven.DocumentStore,
	relationStore driven.RelationStore,
) *IngestService {
	return &IngestService{
		registry:      registry,
		embedder:      embedder,
		vectorIndex:   vectorIndex,
		keywordIndex:  keywordIndex,
		docStore:      docStore,
		relationStore: relationStore,
		now:           time.Now,
	}
}

// Ingest processes a batch of raw documents. Each document is handled
// independently: a rejected document lands in the report and the batch
// continues.
func (s *IngestService) Ingest(ctx context.Context, raws []domain.RawDocument) (*driving.IngestReport, error) {
	logger.Section("Ingest")
	logger.Info("Ingesting %d document(s)", len(raws))

	report := &driving.IngestReport{
		Outcomes: make([]driving.DocumentOutcome, 0, len(raws)),
	}

	for i := range raws {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome := s.ingestOne(ctx, &raws[i])
		if outcome.Err != nil {
			report.Failed++
			logger.Warn("Ingest %s failed: %v", outcome.Path, outcome.Err)
		} else {
			report.Succeeded++
			logger.Debug("Ingested %s: %d chunk(s)", outcome.Path, outcome.Chunks)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report, nil
}

// ingestOne runs the pipeline for a single document.
func (s *IngestService) ingestOne(ctx context.Context, raw *domain.RawDocument) driving.DocumentOutcome {
	outcome := driving.DocumentOutcome{Path: raw.Path}

	normaliser, err := s.registry.ForRaw(raw)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	res, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	doc := res.Document
	doc.IngestedAt = s.now().UTC()
	chunks := res.Chunks

	// Re-ingesting a path replaces the previous version: clear the old
	// chunk set from both indexes first.
	if err := s.clearPrevious(ctx, doc.ID); err != nil {
		outcome.Err = err
		return outcome
	}

	chunks, vectorIncomplete := s.embedChunks(ctx, chunks)

	// An index failure part-way through must not leave entries for a
	// document the store never records: unwind what was written so a
	// later re-ingest cannot orphan them.
	indexed := make([]string, 0, len(chunks))
	for i := range chunks {
		if err := s.keywordIndex.Upsert(ctx, chunks[i].ID, chunks[i].Text); err != nil {
			s.unwindIndexed(ctx, indexed)
			outcome.Err = fmt.Errorf("keyword index: %w", err)
			return outcome
		}
		indexed = append(indexed, chunks[i].ID)
		if chunks[i].Embedding != nil {
			if err := s.vectorIndex.Upsert(ctx, chunks[i].ID, chunks[i].Embedding); err != nil {
				s.unwindIndexed(ctx, indexed)
				outcome.Err = fmt.Errorf("vector index: %w", err)
				return outcome
			}
		}
	}

	// Chunks become visible to queries only after both indexes hold
	// them, so the store writes happen last.
	if err := s.docStore.SaveDocument(ctx, &doc); err != nil {
		outcome.Err = fmt.Errorf("saving document: %w", err)
		return outcome
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		outcome.Err = fmt.Errorf("saving chunks: %w", err)
		return outcome
	}

	outcome.DocumentID = doc.ID
	outcome.Chunks = len(chunks)
	outcome.VectorIncomplete = vectorIncomplete
	return outcome
}

// unwindIndexed deletes chunk entries written before an index failure.
// Best effort: the document is failing anyway, so deletion errors are
// only logged.
func (s *IngestService) unwindIndexed(ctx context.Context, chunkIDs []string) {
	for _, id := range chunkIDs {
		if err := s.keywordIndex.Delete(ctx, id); err != nil {
			logger.Warn("Unwinding keyword entry %s: %v", id, err)
		}
		if err := s.vectorIndex.Delete(ctx, id); err != nil {
			logger.Warn("Unwinding vector entry %s: %v", id, err)
		}
	}
}

// clearPrevious removes a prior version's chunks from both indexes.
func (s *IngestService) clearPrevious(ctx context.Context, docID string) error {
	previous, err := s.docStore.GetChunks(ctx, docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading previous chunks: %w", err)
	}

	for _, c := range previous {
		if err := s.keywordIndex.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("clearing keyword entry: %w", err)
		}
		if err := s.vectorIndex.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("clearing vector entry: %w", err)
		}
	}
	return nil
}

// embedChunks attaches embeddings to the chunk set. When the embedding
// backend is down the chunks are marked vector-incomplete and proceed
// to the keyword index alone.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, bool) {
	if s.embedder == nil {
		return markIncomplete(chunks), true
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		logger.Warn("Embedding failed, indexing keyword-only: %v", err)
		return markIncomplete(chunks), true
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
		chunks[i].VectorIncomplete = false
	}
	return chunks, false
}

// markIncomplete flags every chunk as missing its vector.
func markIncomplete(chunks []domain.Chunk) []domain.Chunk {
	for i := range chunks {
		chunks[i].Embedding = nil
		chunks[i].VectorIncomplete = true
	}
	return chunks
}

// Remove deletes a document, its index entries and any relation edges
// touching it.
func (s *IngestService) Remove(ctx context.Context, documentID string) error {
	logger.Section("Remove")

	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("loading chunks: %w", err)
	}

	for _, c := range chunks {
		if err := s.keywordIndex.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("removing keyword entry: %w", err)
		}
		if err := s.vectorIndex.Delete(ctx, c.ID); err != nil {
			return fmt.Errorf("removing vector entry: %w", err)
		}
	}

	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if s.relationStore != nil {
		if err := s.relationStore.DeleteFor(ctx, documentID); err != nil {
			return fmt.Errorf("deleting relations: %w", err)
		}
	}

	logger.Info("Removed document %s (%d chunks)", documentID, len(chunks))
	return nil
}
