// Package dualwrite implements the Dual-Store Writer (C2): it commits a
// batch of chunks and their embeddings to the vector store first, then the
// lexical store, and compensates with a vector-store delete if the lexical
// leg fails partway through. A chunk is never left lexically indexed
// without its vectors, or vice versa, except for the narrow window between
// the two writes that the orphan reaper (C8) reconciles on its next pass.
package dualwrite

import (
	"context"
	"fmt"
	"log/slog"

	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/indexlifecycle"
	"github.com/legalease-ai/evidence-core/internal/lexstore"
)

// Result reports what a Write call actually committed, so callers can
// distinguish a clean success from a rolled-back partial failure.
type Result struct {
	Success         bool
	ChunksWritten   int
	Errors          []string
}

// Writer commits chunks into one evidence-type collection's dual store.
type Writer struct {
	index *indexlifecycle.CaseIndex
}

// New builds a Writer over the given collection's lexical and vector
// stores.
func New(index *indexlifecycle.CaseIndex) *Writer {
	return &Writer{index: index}
}

// Write indexes chunks and their corresponding embeddings. embeddings must
// be the same length as chunks, in matching order. The vector store is
// written first (three spaces: summary, section, microblock), then the
// lexical store; if the lexical write fails, the vectors just written are
// deleted before returning.
func (w *Writer) Write(ctx context.Context, chunks []*domain.Chunk, embeddings []domain.EmbeddingSet) (Result, error) {
	if len(chunks) == 0 {
		return Result{Success: true}, nil
	}
	if len(chunks) != len(embeddings) {
		return Result{}, &evidenceerrors.ValidationError{
			Field:   "embeddings",
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(chunks), len(embeddings)),
		}
	}

	ids := make([]string, len(chunks))
	summaryVecs := make([][]float32, len(chunks))
	sectionVecs := make([][]float32, len(chunks))
	microblockVecs := make([][]float32, len(chunks))
	for i, c := range chunks {
		if c.ID != embeddings[i].ChunkID {
			return Result{}, &evidenceerrors.ValidationError{
				Field:   "embeddings",
				Message: fmt.Sprintf("chunk/embedding order mismatch at index %d: %s vs %s", i, c.ID, embeddings[i].ChunkID),
			}
		}
		ids[i] = c.ID
		summaryVecs[i] = embeddings[i].SummaryVec
		sectionVecs[i] = embeddings[i].SectionVec
		microblockVecs[i] = embeddings[i].MicroblockVec
	}

	if err := w.index.Vectors.Summary.Add(ctx, ids, summaryVecs); err != nil {
		return Result{Success: false, Errors: []string{err.Error()}}, nil
	}
	if err := w.index.Vectors.Section.Add(ctx, ids, sectionVecs); err != nil {
		w.rollbackVectors(ctx, ids, []string{"summary"})
		return Result{Success: false, Errors: []string{err.Error()}}, nil
	}
	if err := w.index.Vectors.Microblock.Add(ctx, ids, microblockVecs); err != nil {
		w.rollbackVectors(ctx, ids, []string{"summary", "section"})
		return Result{Success: false, Errors: []string{err.Error()}}, nil
	}

	docs := make([]lexstore.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = lexstore.Document{ID: c.ID, Text: c.Text}
	}
	if err := w.index.Lexical.Index(ctx, docs); err != nil {
		w.rollbackVectors(ctx, ids, []string{"summary", "section", "microblock"})
		slog.Warn("dualwrite: lexical write failed, vector write rolled back",
			slog.Int("chunks", len(chunks)), slog.String("error", err.Error()))
		return Result{Success: false, Errors: []string{err.Error()}}, nil
	}

	if w.index.Chunks != nil {
		if err := w.index.Chunks.Save(ctx, chunks); err != nil {
			slog.Error("dualwrite: chunk-lookup write failed after vectors and lexical succeeded",
				slog.Int("chunks", len(chunks)), slog.String("error", err.Error()))
			return Result{Success: false, Errors: []string{err.Error()}}, nil
		}
	}

	return Result{Success: true, ChunksWritten: len(chunks)}, nil
}

// rollbackVectors deletes ids from whichever named spaces were already
// written, best-effort: a rollback failure is logged, not returned, since
// the caller is already reporting the original failure and the orphan
// reaper will catch anything this leaves behind.
func (w *Writer) rollbackVectors(ctx context.Context, ids []string, spaces []string) {
	for _, space := range spaces {
		var store interface {
			Delete(context.Context, []string) error
		}
		switch space {
		case "summary":
			store = w.index.Vectors.Summary
		case "section":
			store = w.index.Vectors.Section
		case "microblock":
			store = w.index.Vectors.Microblock
		}
		if store == nil {
			continue
		}
		if err := store.Delete(ctx, ids); err != nil {
			slog.Error("dualwrite: compensating delete failed, orphaned vectors left for the reaper",
				slog.String("space", space), slog.String("error", err.Error()))
		}
	}
}

// Delete removes chunks from both stores for an evidence item, used when
// evidence is removed or re-chunked. Vector deletes run first to match the
// write order; a lexical deletion failure after a successful vector
// deletion produces an inconsistency the orphan reaper reconciles.
func (w *Writer) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	if err := w.index.Vectors.Summary.Delete(ctx, chunkIDs); err != nil {
		return fmt.Errorf("dualwrite: delete summary vectors: %w", err)
	}
	if err := w.index.Vectors.Section.Delete(ctx, chunkIDs); err != nil {
		return fmt.Errorf("dualwrite: delete section vectors: %w", err)
	}
	if err := w.index.Vectors.Microblock.Delete(ctx, chunkIDs); err != nil {
		return fmt.Errorf("dualwrite: delete microblock vectors: %w", err)
	}
	if err := w.index.Lexical.Delete(ctx, chunkIDs); err != nil {
		return &evidenceerrors.ConsistencyError{
			EvidenceID: "",
			Message:    fmt.Sprintf("vectors deleted but lexical delete failed: %v", err),
		}
	}
	if w.index.Chunks != nil {
		if err := w.index.Chunks.Delete(ctx, chunkIDs); err != nil {
			return &evidenceerrors.ConsistencyError{
				EvidenceID: "",
				Message:    fmt.Sprintf("vectors and lexical deleted but chunk-lookup delete failed: %v", err),
			}
		}
	}
	return nil
}
