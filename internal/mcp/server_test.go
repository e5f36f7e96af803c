package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/metadata"
	"github.com/legalease-ai/evidence-core/internal/orchestrator"
	"github.com/legalease-ai/evidence-core/internal/querybus"
	"github.com/legalease-ai/evidence-core/internal/queryhandlers"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

type noopRetrieveProvider struct{}

func (noopRetrieveProvider) Engine(ctx context.Context, caseID, collection string) (*retriever.Engine, error) {
	return nil, assert.AnError
}

// noopActivities never mutates the run; each phase completes instantly so
// Start()'d workflows in tests finish without needing real backends.
func noopActivities() orchestrator.Activities {
	noop := func(ctx context.Context, run *domain.ResearchRun) error { return nil }
	return orchestrator.Activities{
		Initialize: noop, Index: noop, Search: noop,
		AnalyzeDocuments: noop, AnalyzeTranscripts: noop, AnalyzeCommunications: noop,
		Correlate: noop, HypothesisGeneration: noop, DossierGeneration: noop,
	}
}

func newTestServer(t *testing.T) (*Server, *metadata.Store) {
	t.Helper()
	store, err := metadata.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := querybus.New()
	bus.Use(querybus.ValidationMiddleware{})
	queryhandlers.RegisterAll(bus, queryhandlers.Deps{Store: store, Retrieve: noopRetrieveProvider{}})

	mgr := orchestrator.NewManager(store, noopActivities())

	srv, err := NewServer(bus, store, mgr)
	require.NoError(t, err)
	return srv, store
}

func TestNewServer_RequiresBus(t *testing.T) {
	store, err := metadata.Open("")
	require.NoError(t, err)
	defer store.Close()
	mgr := orchestrator.NewManager(store, noopActivities())

	_, err = NewServer(nil, store, mgr)
	assert.Error(t, err)
}

func TestNewServer_RequiresStore(t *testing.T) {
	bus := querybus.New()
	mgr := orchestrator.NewManager(nil, noopActivities())

	_, err := NewServer(bus, nil, mgr)
	assert.Error(t, err)
}

func TestNewServer_RequiresOrchestrator(t *testing.T) {
	store, err := metadata.Open("")
	require.NoError(t, err)
	defer store.Close()
	bus := querybus.New()

	_, err = NewServer(bus, store, nil)
	assert.Error(t, err)
}

func TestNewServer_ListsAllTools(t *testing.T) {
	srv, _ := newTestServer(t)
	names := make(map[string]bool)
	for _, tool := range srv.ListTools() {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"search_evidence", "start_research", "get_research_status",
		"cancel_research", "pause_research", "resume_research",
		"list_research_runs", "get_findings", "query_graph",
		"get_timeline", "get_dossier",
	} {
		assert.True(t, names[want], "expected tool %q to be registered", want)
	}
}

func TestHandleStartResearch_PersistsAndStartsRun(t *testing.T) {
	srv, store := newTestServer(t)

	_, out, err := srv.handleStartResearch(context.Background(), nil, StartResearchInput{
		CaseID: "case-1", Query: "find the signed contract",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ResearchRunID)
	assert.Equal(t, "RUNNING", out.Status)

	saved, err := store.GetResearchRun(context.Background(), out.ResearchRunID)
	require.NoError(t, err)
	assert.Equal(t, "case-1", saved.CaseID)
}

func TestHandleStartResearch_RejectsEmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _, err := srv.handleStartResearch(context.Background(), nil, StartResearchInput{CaseID: "case-1"})
	require.Error(t, err)
	mcpErr, ok := err.(*MCPError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestHandleGetResearchStatus_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _, err := srv.handleGetResearchStatus(context.Background(), nil, GetResearchStatusInput{ResearchRunID: "missing"})
	require.Error(t, err)
	mcpErr, ok := err.(*MCPError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, mcpErr.Code)
}

func TestHandleCancelResearch_FalseWhenNotTracked(t *testing.T) {
	srv, _ := newTestServer(t)

	_, out, err := srv.handleCancelResearch(context.Background(), nil, ResearchRunControlInput{ResearchRunID: "untracked"})
	require.NoError(t, err)
	assert.False(t, out.Ok)
}

func TestHandleListResearchRuns_RequiresCaseID(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _, err := srv.handleListResearchRuns(context.Background(), nil, ListResearchRunsInput{})
	assert.Error(t, err)
}

func TestHandleSearchEvidence_RejectsEmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _, err := srv.handleSearchEvidence(context.Background(), nil, SearchEvidenceInput{CaseID: "case-1"})
	assert.Error(t, err)
}
