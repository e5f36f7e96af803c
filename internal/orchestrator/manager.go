package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// Manager tracks in-process running Workflows keyed by research run ID,
// the seam queryhandlers.LiveStatusProvider and the C9 transport adapters'
// cancel/pause/resume signal surface are built on.
type Manager struct {
	store      CheckpointStore
	activities Activities

	mu        sync.Mutex
	workflows map[string]*Workflow
}

// NewManager builds a Manager. activities is shared read-only across every
// workflow the manager starts.
func NewManager(store CheckpointStore, activities Activities) *Manager {
	return &Manager{store: store, activities: activities, workflows: make(map[string]*Workflow)}
}

// Start launches run's workflow in a background goroutine and registers
// it for signal delivery and live-progress lookups until it finishes.
func (m *Manager) Start(ctx context.Context, run *domain.ResearchRun) {
	wf := New(run, m.store, m.activities)

	m.mu.Lock()
	m.workflows[run.ID] = wf
	m.mu.Unlock()

	go func() {
		if err := wf.Run(ctx); err != nil {
			_ = err // already checkpointed as FAILED inside drive(); nothing further to do here
		}
		m.mu.Lock()
		delete(m.workflows, run.ID)
		m.mu.Unlock()
	}()
}

// Resume reloads a paused or interrupted run from its checkpoint and
// restarts its workflow; activities are idempotent, so the phase the run
// was checkpointed at runs again rather than resuming mid-phase.
func (m *Manager) Resume(ctx context.Context, runID string) error {
	run, err := m.store.GetResearchRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("orchestrator: resume %s: %w", runID, err)
	}
	if run.Status != domain.RunStatusPaused {
		return fmt.Errorf("orchestrator: run %s is not paused (status=%s)", runID, run.Status)
	}
	run.Status = domain.RunStatusRunning
	m.Start(ctx, run)
	return nil
}

// Cancel signals a running workflow to cancel. Returns false if no
// in-process workflow is tracked for runID (it may already be terminal).
func (m *Manager) Cancel(runID string) bool {
	m.mu.Lock()
	wf, ok := m.workflows[runID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	wf.Cancel()
	return true
}

// PauseRun signals a running workflow to pause. Returns false if no
// in-process workflow is tracked for runID.
func (m *Manager) PauseRun(runID string) bool {
	m.mu.Lock()
	wf, ok := m.workflows[runID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	wf.Pause()
	return true
}

// ActiveRunCount returns the number of workflows currently tracked
// in-process, for status reporting by the C9 transport adapters.
func (m *Manager) ActiveRunCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workflows)
}

// LiveProgress implements queryhandlers.LiveStatusProvider.
func (m *Manager) LiveProgress(ctx context.Context, runID string) (float64, bool) {
	m.mu.Lock()
	wf, ok := m.workflows[runID]
	m.mu.Unlock()
	if !ok {
		return 0, false
	}
	return wf.Progress(), true
}
