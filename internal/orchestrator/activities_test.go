package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease-ai/evidence-core/internal/correlation"
	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/indexlifecycle"
	"github.com/legalease-ai/evidence-core/internal/lexstore"
	"github.com/legalease-ai/evidence-core/internal/metadata"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

type fixedEmbedder struct{ dims int }

func (f fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, f.dims)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec, nil
}
func (f fixedEmbedder) Dimensions() int { return f.dims }

type fixedLookup struct{ chunks map[string]retriever.ChunkRecord }

func (f fixedLookup) GetChunk(ctx context.Context, id string) (retriever.ChunkRecord, bool) {
	rec, ok := f.chunks[id]
	return rec, ok
}

// singleEngineProvider always returns the same pre-built engine regardless
// of collection, enough to exercise every analysis activity against one
// seeded index.
type singleEngineProvider struct{ engine *retriever.Engine }

func (p singleEngineProvider) Engine(ctx context.Context, caseID string, col indexlifecycle.Collection) (*retriever.Engine, error) {
	return p.engine, nil
}

func newSeededEngine(t *testing.T) *retriever.Engine {
	t.Helper()
	ctx := context.Background()
	mgr := indexlifecycle.NewManager(t.TempDir(), 3, "hnsw", "")
	indexes, err := mgr.CreateAll(ctx, false)
	require.NoError(t, err)
	idx := indexes[indexlifecycle.CollectionDocuments]

	texts := []string{
		"Acme Corp breached the supply agreement on 2024-01-01",
		"the witness testified the contract was signed under duress",
	}
	lookup := fixedLookup{chunks: make(map[string]retriever.ChunkRecord)}
	ids := make([]string, len(texts))
	vecs := make([][]float32, len(texts))
	docs := make([]lexstore.Document, len(texts))
	for i, txt := range texts {
		c, err := domain.NewChunk("evidence-1", "case-1", txt, domain.ChunkTypeSection, i)
		require.NoError(t, err)
		ids[i] = c.ID
		vecs[i] = []float32{0.1, 0.1, 0.1}
		docs[i] = lexstore.Document{ID: c.ID, Text: txt}
		lookup.chunks[c.ID] = retriever.ChunkRecord{EvidenceID: c.EvidenceID, Text: txt, ChunkType: string(c.ChunkType)}
	}
	require.NoError(t, idx.Vectors.Section.Add(ctx, ids, vecs))
	require.NoError(t, idx.Lexical.Index(ctx, docs))

	return retriever.New(idx, fixedEmbedder{dims: 3}, lookup)
}

func newTestDeps(t *testing.T) (ActivityDeps, *metadata.Store) {
	t.Helper()
	store, err := metadata.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c, err := domain.NewCase("case-1", "CASE-1", "Acme Client", "civil", "team-1")
	require.NoError(t, err)
	require.NoError(t, store.SaveCase(context.Background(), c))

	engine := newSeededEngine(t)
	deps := ActivityDeps{
		Store:       store,
		Retrieve:    singleEngineProvider{engine: engine},
		Correlation: correlation.New(fixedEmbedder{dims: 3}),
	}
	return deps, store
}

func TestSearchActivityPersistsSeedFindings(t *testing.T) {
	ctx := context.Background()
	deps, store := newTestDeps(t)
	run, err := domain.NewResearchRun("run-1", "case-1", "breach of contract")
	require.NoError(t, err)

	require.NoError(t, deps.search(ctx, run))
	assert.NotEmpty(t, run.FindingIDs)

	findings, err := store.GetFindingsByRun(ctx, "run-1", metadata.GetFindingsFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, findings)
}

func TestAnalyzeCollectionTagsEvidenceType(t *testing.T) {
	ctx := context.Background()
	deps, store := newTestDeps(t)
	run, err := domain.NewResearchRun("run-1", "case-1", "breach of contract")
	require.NoError(t, err)

	activity := deps.analyzeCollection(indexlifecycle.CollectionDocuments, domain.EvidenceTypeDocument)
	require.NoError(t, activity(ctx, run))

	findings, err := store.GetFindingsByRun(ctx, "run-1", metadata.GetFindingsFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, findings)
	assert.Contains(t, findings[0].Tags, string(domain.EvidenceTypeDocument))
}

func TestCorrelateBuildsGraphAndTimeline(t *testing.T) {
	ctx := context.Background()
	deps, store := newTestDeps(t)
	run, err := domain.NewResearchRun("run-1", "case-1", "q")
	require.NoError(t, err)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f, err := domain.NewFinding("f1", "run-1", domain.FindingTypeTimelineEvent, "Acme Corp signed on 2024-01-01", 0.8, 0.8)
	require.NoError(t, err)
	f.Entities = []string{"Acme Corp"}
	f.EventTimestamp = &ts
	f.Citations = []domain.Citation{{ChunkID: "c1", EvidenceID: "ev-1"}}
	require.NoError(t, store.SaveFindings(ctx, []*domain.Finding{f}))

	require.NoError(t, deps.correlate(ctx, run))

	timeline, err := store.GetTimelineByCase(ctx, "case-1", metadata.GetTimelineFilter{})
	require.NoError(t, err)
	assert.Len(t, timeline, 1)
}

func TestDossierGenerationProducesSections(t *testing.T) {
	ctx := context.Background()
	deps, store := newTestDeps(t)
	run, err := domain.NewResearchRun("run-1", "case-1", "breach of contract")
	require.NoError(t, err)

	f, err := domain.NewFinding("f1", "run-1", domain.FindingTypeFact, "Acme Corp breached the contract", 0.8, 0.8)
	require.NoError(t, err)
	require.NoError(t, store.SaveFindings(ctx, []*domain.Finding{f}))

	require.NoError(t, deps.dossierGeneration(ctx, run))

	dossier, err := store.GetDossierByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.NotEmpty(t, dossier.Sections)
	assert.Equal(t, "Key Facts", dossier.Sections[0].Title)
}
