package queryhandlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/metadata"
	"github.com/legalease-ai/evidence-core/internal/querybus"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

type noopRetrieveProvider struct{}

func (noopRetrieveProvider) Engine(ctx context.Context, caseID, collection string) (*retriever.Engine, error) {
	return nil, assert.AnError
}

type fakeLiveStatus struct {
	pct float64
	ok  bool
}

func (f fakeLiveStatus) LiveProgress(ctx context.Context, runID string) (float64, bool) {
	return f.pct, f.ok
}

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	store, err := metadata.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return Deps{Store: store, Retrieve: noopRetrieveProvider{}}
}

func TestGetFindingsValidatesRequiredFields(t *testing.T) {
	bus := querybus.New()
	bus.Use(querybus.ValidationMiddleware{})
	deps := newTestDeps(t)
	RegisterAll(bus, deps)

	_, err := querybus.Execute[GetFindingsResult](bus, context.Background(), GetFindingsQuery{})
	assert.Error(t, err)
}

func TestGetFindingsReturnsSortedResults(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	bus := querybus.New()
	RegisterAll(bus, deps)

	f1, err := domain.NewFinding("f-1", "run-1", domain.FindingTypeFact, "low", 0.5, 0.1)
	require.NoError(t, err)
	f2, err := domain.NewFinding("f-2", "run-1", domain.FindingTypeFact, "high", 0.5, 0.9)
	require.NoError(t, err)
	require.NoError(t, deps.Store.SaveFindings(ctx, []*domain.Finding{f1, f2}))

	result, err := querybus.Execute[GetFindingsResult](bus, ctx, GetFindingsQuery{ResearchRunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, result.Findings, 2)
	assert.Equal(t, "f-2", result.Findings[0].ID)
}

func TestGetResearchStatusUsesLiveProgressWhenRunning(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	deps.Live = fakeLiveStatus{pct: 47, ok: true}
	bus := querybus.New()
	RegisterAll(bus, deps)

	run, err := domain.NewResearchRun("run-1", "case-1", "q")
	require.NoError(t, err)
	run.Status = domain.RunStatusRunning
	run.Phase = domain.PhaseSearching
	require.NoError(t, deps.Store.SaveResearchRun(ctx, run))

	result, err := querybus.Execute[GetResearchStatusResult](bus, ctx, GetResearchStatusQuery{ResearchRunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, 47.0, result.ProgressPct)
}

func TestGetResearchStatusCancelledPinsToPhaseMap(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	bus := querybus.New()
	RegisterAll(bus, deps)

	run, err := domain.NewResearchRun("run-1", "case-1", "q")
	require.NoError(t, err)
	run.Phase = domain.PhaseAnalyzing
	require.NoError(t, run.Cancel())
	require.NoError(t, deps.Store.SaveResearchRun(ctx, run))

	result, err := querybus.Execute[GetResearchStatusResult](bus, ctx, GetResearchStatusQuery{ResearchRunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseProgress[domain.PhaseAnalyzing], result.ProgressPct)
}

func TestListResearchRunsSortedDesc(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	bus := querybus.New()
	RegisterAll(bus, deps)

	r1, err := domain.NewResearchRun("run-1", "case-1", "q1")
	require.NoError(t, err)
	r1.StartedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, deps.Store.SaveResearchRun(ctx, r1))

	r2, err := domain.NewResearchRun("run-2", "case-1", "q2")
	require.NoError(t, err)
	require.NoError(t, deps.Store.SaveResearchRun(ctx, r2))

	result, err := querybus.Execute[ListResearchRunsResult](bus, ctx, ListResearchRunsQuery{CaseID: "case-1"})
	require.NoError(t, err)
	require.Len(t, result.Runs, 2)
	assert.Equal(t, "run-2", result.Runs[0].ID)
}

func TestQueryGraphTraversal(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	bus := querybus.New()
	RegisterAll(bus, deps)

	nodes := []*domain.GraphNode{
		{ID: "n-1", CaseID: "case-1", Type: domain.NodeTypePerson, Label: "Jane Doe"},
		{ID: "n-2", CaseID: "case-1", Type: domain.NodeTypeOrganization, Label: "Acme"},
	}
	require.NoError(t, deps.Store.SaveGraphNodes(ctx, nodes))
	require.NoError(t, deps.Store.SaveGraphRelationships(ctx, []*domain.GraphRelationship{
		{ID: "r-1", CaseID: "case-1", SourceID: "n-1", TargetID: "n-2", Type: domain.RelRelatedTo},
	}))

	result, err := querybus.Execute[QueryGraphResult](bus, ctx, QueryGraphQuery{CaseID: "case-1", SeedNodeIDs: []string{"n-1"}})
	require.NoError(t, err)
	assert.Len(t, result.Relationships, 1)
}

func TestGetTimelineRejectsInvertedDateRange(t *testing.T) {
	q := GetTimelineQuery{CaseID: "case-1", From: time.Now(), To: time.Now().Add(-time.Hour)}
	assert.Error(t, q.Validate())
}

func TestGetDossierNotFound(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	bus := querybus.New()
	RegisterAll(bus, deps)

	_, err := querybus.Execute[GetDossierResult](bus, ctx, GetDossierQuery{ResearchRunID: "missing"})
	assert.Error(t, err)
}
