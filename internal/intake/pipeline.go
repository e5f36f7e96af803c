// Package intake implements C0: Evidence Intake & Chunking. It turns a raw
// evidence file into its ordered Chunks (internal/chunk), embeds each chunk
// (internal/embed), and commits the result through the dual-store writer
// (C2, internal/dualwrite), the same document/transcript/chunk-and-embed
// path the drop-folder watcher (internal/watcher) and the CLI's index
// command both drive.
package intake

import (
	"context"
	"fmt"

	"github.com/legalease-ai/evidence-core/internal/chunk"
	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/dualwrite"
	"github.com/legalease-ai/evidence-core/internal/indexlifecycle"
)

// Embedder is the subset of embed.Embedder intake needs to vectorize chunk
// text at ingest time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EvidenceStore persists the Evidence envelope before and after chunking.
// internal/metadata.Store satisfies this directly.
type EvidenceStore interface {
	SaveEvidence(ctx context.Context, e *domain.Evidence) error
}

// IndexProvider resolves a case+collection to the CaseIndex chunks are
// written into. internal/caseindex.Provider satisfies this directly.
type IndexProvider interface {
	CaseIndexFor(ctx context.Context, caseID string, collection indexlifecycle.Collection) (*indexlifecycle.CaseIndex, error)
}

// collectionFor maps an evidence type to the case index collection it is
// chunked and embedded into.
func collectionFor(t domain.EvidenceType) (indexlifecycle.Collection, error) {
	switch t {
	case domain.EvidenceTypeDocument:
		return indexlifecycle.CollectionDocuments, nil
	case domain.EvidenceTypeTranscript:
		return indexlifecycle.CollectionTranscripts, nil
	case domain.EvidenceTypeCommunication:
		return indexlifecycle.CollectionCommunications, nil
	default:
		return "", fmt.Errorf("intake: unknown evidence type %q", t)
	}
}

// Pipeline wires together a chunker per evidence type, an embedder, and
// the case index provider into one Ingest call.
type Pipeline struct {
	documentChunker   chunk.Chunker
	transcriptChunker chunk.Chunker
	embedder          Embedder
	store             EvidenceStore
	indexes           IndexProvider
}

// New builds a Pipeline. Communications are chunked with documentChunker,
// the same choice internal/chunk's package doc makes for short message
// bodies.
func New(embedder Embedder, store EvidenceStore, indexes IndexProvider) *Pipeline {
	return &Pipeline{
		documentChunker:   chunk.NewDocumentChunker(),
		transcriptChunker: chunk.NewTranscriptChunker(),
		embedder:          embedder,
		store:             store,
		indexes:           indexes,
	}
}

// Result reports what Ingest committed.
type Result struct {
	ChunksWritten int
}

// Ingest chunks content per evidence.Type, embeds every chunk, and commits
// them through the dual-store writer, updating evidence.Status to reflect
// the outcome before persisting it. content is the evidence's extracted
// plain text; format-specific extraction (PDF/DOCX/audio transcription)
// happens upstream of this package.
func (p *Pipeline) Ingest(ctx context.Context, evidence *domain.Evidence, content string) (Result, error) {
	chunker := p.documentChunker
	if evidence.Type == domain.EvidenceTypeTranscript {
		chunker = p.transcriptChunker
	}

	evidence.Status = domain.EvidenceStatusProcessing
	if err := p.store.SaveEvidence(ctx, evidence); err != nil {
		return Result{}, fmt.Errorf("intake: save evidence %s: %w", evidence.ID, err)
	}

	chunks, err := chunker.Chunk(evidence, content)
	if err != nil {
		evidence.Status = domain.EvidenceStatusFailed
		_ = p.store.SaveEvidence(ctx, evidence)
		return Result{}, fmt.Errorf("intake: chunk evidence %s: %w", evidence.ID, err)
	}

	embeddings := make([]domain.EmbeddingSet, len(chunks))
	for i, c := range chunks {
		vec, err := p.embedder.Embed(ctx, c.Text)
		if err != nil {
			evidence.Status = domain.EvidenceStatusFailed
			_ = p.store.SaveEvidence(ctx, evidence)
			return Result{}, fmt.Errorf("intake: embed chunk %s: %w", c.ID, err)
		}
		embeddings[i] = domain.EmbeddingSet{
			ChunkID:       c.ID,
			SummaryVec:    vec,
			SectionVec:    vec,
			MicroblockVec: vec,
		}
	}

	collection, err := collectionFor(evidence.Type)
	if err != nil {
		evidence.Status = domain.EvidenceStatusFailed
		_ = p.store.SaveEvidence(ctx, evidence)
		return Result{}, err
	}

	idx, err := p.indexes.CaseIndexFor(ctx, evidence.CaseID, collection)
	if err != nil {
		evidence.Status = domain.EvidenceStatusFailed
		_ = p.store.SaveEvidence(ctx, evidence)
		return Result{}, fmt.Errorf("intake: resolve case index: %w", err)
	}

	writer := dualwrite.New(idx)
	writeResult, err := writer.Write(ctx, chunks, embeddings)
	if err != nil || !writeResult.Success {
		evidence.Status = domain.EvidenceStatusFailed
		_ = p.store.SaveEvidence(ctx, evidence)
		if err != nil {
			return Result{}, fmt.Errorf("intake: write chunks for evidence %s: %w", evidence.ID, err)
		}
		return Result{}, fmt.Errorf("intake: write chunks for evidence %s: %v", evidence.ID, writeResult.Errors)
	}

	evidence.Status = domain.EvidenceStatusCompleted
	if err := p.store.SaveEvidence(ctx, evidence); err != nil {
		return Result{}, fmt.Errorf("intake: save evidence %s: %w", evidence.ID, err)
	}

	return Result{ChunksWritten: writeResult.ChunksWritten}, nil
}
