package intake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease-ai/evidence-core/internal/caseindex"
	"github.com/legalease-ai/evidence-core/internal/domain"
)

type fakeEmbedder struct{ dims int }

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32(len(text)) / float32(i+1)
	}
	return v, nil
}

func (f fakeEmbedder) Dimensions() int { return f.dims }

type fakeEvidenceStore struct {
	saved []*domain.Evidence
}

func (s *fakeEvidenceStore) SaveEvidence(ctx context.Context, e *domain.Evidence) error {
	s.saved = append(s.saved, e)
	return nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *fakeEvidenceStore, *caseindex.Provider) {
	t.Helper()
	store := &fakeEvidenceStore{}
	provider := caseindex.New(t.TempDir(), 8, "hnsw", "", fakeEmbedder{dims: 8})
	p := New(fakeEmbedder{dims: 8}, store, provider)
	return p, store, provider
}

func TestIngestDocumentWritesChunksAndMarksCompleted(t *testing.T) {
	p, store, provider := newTestPipeline(t)
	defer provider.Close()

	evidence, err := domain.NewEvidence("ev-1", "case-1", domain.EvidenceTypeDocument, "memo.txt", 100)
	require.NoError(t, err)

	result, err := p.Ingest(context.Background(), evidence, "# Heading\n\nSome body text about the dispute.\n\n# Second Heading\n\nMore evidence text here.")
	require.NoError(t, err)
	assert.Greater(t, result.ChunksWritten, 0)
	assert.Equal(t, domain.EvidenceStatusCompleted, evidence.Status)
	assert.Equal(t, domain.EvidenceStatusCompleted, store.saved[len(store.saved)-1].Status)
}

func TestIngestTranscriptUsesTranscriptChunker(t *testing.T) {
	p, _, provider := newTestPipeline(t)
	defer provider.Close()

	evidence, err := domain.NewEvidence("ev-2", "case-1", domain.EvidenceTypeTranscript, "deposition.txt", 100)
	require.NoError(t, err)
	evidence.Segments = []domain.Segment{
		{ID: "s1", StartS: 0, EndS: 5, Text: "Let's begin the deposition.", SpeakerID: "attorney"},
		{ID: "s2", StartS: 5, EndS: 12, Text: "I understand, go ahead.", SpeakerID: "witness"},
	}

	result, err := p.Ingest(context.Background(), evidence, "")
	require.NoError(t, err)
	assert.Greater(t, result.ChunksWritten, 0)
}

func TestIngestUnknownEvidenceTypeFails(t *testing.T) {
	p, store, provider := newTestPipeline(t)
	defer provider.Close()

	evidence := &domain.Evidence{ID: "ev-3", CaseID: "case-1", Type: "BOGUS"}
	_, err := p.Ingest(context.Background(), evidence, "text")
	require.Error(t, err)
	assert.Equal(t, domain.EvidenceStatusFailed, store.saved[len(store.saved)-1].Status)
}
