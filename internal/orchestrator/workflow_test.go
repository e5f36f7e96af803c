package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

type fakeStore struct {
	runs map[string]*domain.ResearchRun
}

func newFakeStore() *fakeStore {
	return &fakeStore{runs: make(map[string]*domain.ResearchRun)}
}

func (f *fakeStore) SaveResearchRun(ctx context.Context, run *domain.ResearchRun) error {
	cp := *run
	f.runs[run.ID] = &cp
	return nil
}

func (f *fakeStore) GetResearchRun(ctx context.Context, id string) (*domain.ResearchRun, error) {
	r, ok := f.runs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *r
	return &cp, nil
}

func noopActivity(ctx context.Context, run *domain.ResearchRun) error { return nil }

func countingActivities() (Activities, *int32) {
	var calls int32
	act := func(ctx context.Context, run *domain.ResearchRun) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	return Activities{
		Initialize:            act,
		Index:                 act,
		Search:                act,
		AnalyzeDocuments:      act,
		AnalyzeTranscripts:    act,
		AnalyzeCommunications: act,
		Correlate:             act,
		HypothesisGeneration:  act,
		DossierGeneration:     act,
	}, &calls
}

func TestWorkflowRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	run, err := domain.NewResearchRun("run-1", "case-1", "find contradictions")
	require.NoError(t, err)

	activities, calls := countingActivities()
	wf := New(run, store, activities)

	require.NoError(t, wf.Run(ctx))
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, domain.PhaseCompleted, run.Phase)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, int32(9), atomic.LoadInt32(calls))

	saved, err := store.GetResearchRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, saved.Status)
}

func TestWorkflowFailsOnActivityError(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	run, err := domain.NewResearchRun("run-1", "case-1", "q")
	require.NoError(t, err)

	act := Activities{
		Initialize: noopActivity,
		Index:      func(ctx context.Context, run *domain.ResearchRun) error { return errors.New("index backend down") },
	}
	wf := New(run, store, act)

	require.NoError(t, wf.Run(ctx))
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	require.NotEmpty(t, run.Errors)
	assert.Contains(t, run.Errors[0], "index backend down")
}

func TestWorkflowCancelStopsBeforeNextPhase(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	run, err := domain.NewResearchRun("run-1", "case-1", "q")
	require.NoError(t, err)

	blockCh := make(chan struct{})
	proceedCh := make(chan struct{})
	act, _ := countingActivities()
	act.Initialize = func(ctx context.Context, run *domain.ResearchRun) error {
		close(blockCh)
		<-proceedCh
		return nil
	}
	wf := New(run, store, act)

	done := make(chan error, 1)
	go func() { done <- wf.Run(ctx) }()

	<-blockCh
	wf.Cancel()
	// Cancel has been queued on the buffered signal channel before
	// Initialize returns, so the checkSignal call right after it runs is
	// guaranteed to observe the pending signal rather than racing it.
	close(proceedCh)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("workflow did not stop after cancel")
	}
	assert.Equal(t, domain.RunStatusCancelled, run.Status)
}

func TestManagerTracksLiveProgress(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	run, err := domain.NewResearchRun("run-1", "case-1", "q")
	require.NoError(t, err)

	blockCh := make(chan struct{})
	proceedCh := make(chan struct{})
	act, _ := countingActivities()
	act.Initialize = func(ctx context.Context, run *domain.ResearchRun) error {
		close(blockCh)
		<-proceedCh
		return nil
	}
	mgr := NewManager(store, act)
	mgr.Start(ctx, run)

	<-blockCh
	pct, ok := mgr.LiveProgress(ctx, "run-1")
	assert.True(t, ok)
	assert.Equal(t, domain.PhaseProgress[domain.PhaseInitializing], pct)
	close(proceedCh)

	assert.Eventually(t, func() bool {
		_, stillTracked := mgr.LiveProgress(ctx, "run-1")
		return !stillTracked
	}, time.Second, 10*time.Millisecond)
}

func TestManagerCancelReturnsFalseForUnknownRun(t *testing.T) {
	mgr := NewManager(newFakeStore(), Activities{})
	assert.False(t, mgr.Cancel("nonexistent"))
}
