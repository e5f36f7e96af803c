package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// Workflow drives one ResearchRun through its phase state machine in a
// background goroutine, the same non-blocking Start/Wait lifecycle as
// internal/async.BackgroundIndexer, generalized from a single indexing job
// to a multi-phase pipeline with external signal control.
type Workflow struct {
	run        *domain.ResearchRun
	store      CheckpointStore
	activities Activities

	signalCh chan signal
	doneCh   chan struct{}

	mu      sync.Mutex
	running bool
	paused  bool
	// progressPct is read by queryhandlers.LiveStatusProvider while the
	// workflow runs; it is more precise than the static phase map during
	// the long ANALYZING phase, where fan-out sub-progress matters.
	progressPct float64
}

// New builds a Workflow for run, not yet started.
func New(run *domain.ResearchRun, store CheckpointStore, activities Activities) *Workflow {
	return &Workflow{
		run:        run,
		store:      store,
		activities: activities,
		signalCh:   make(chan signal, 4),
		doneCh:     make(chan struct{}),
	}
}

// Run executes the workflow end to end, blocking until it reaches a
// terminal status or resume
func (w *Workflow) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("orchestrator: workflow %s already running", w.run.ID)
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	return w.drive(ctx)
}

// Cancel signals the workflow to transition to CANCELLED at the next
// checkpoint boundary.
func (w *Workflow) Cancel() { w.signalCh <- signalCancel }

// Pause signals the workflow to transition to PAUSED at the next
// checkpoint boundary.
func (w *Workflow) Pause() { w.signalCh <- signalPause }

// Resume signals a paused workflow to continue from its checkpointed
// phase. Calling Resume on a workflow whose goroutine has already exited
// (PAUSED terminal-for-this-process state) is the caller's cue to start a
// fresh Workflow from the persisted checkpoint instead.
func (w *Workflow) Resume() { w.signalCh <- signalResume }

// Progress reports the live progress percentage, read by
// queryhandlers.LiveStatusProvider.
func (w *Workflow) Progress() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progressPct
}

func (w *Workflow) setProgress(pct float64) {
	w.mu.Lock()
	w.progressPct = pct
	w.mu.Unlock()
}

// checkSignal drains one pending signal without blocking, applying
// CANCELLED/PAUSED transitions immediately. Returns true if the workflow
// should stop driving further phases this call.
func (w *Workflow) checkSignal(ctx context.Context, run *domain.ResearchRun) (stop bool, err error) {
	select {
	case sig := <-w.signalCh:
		switch sig {
		case signalCancel:
			if cerr := run.Cancel(); cerr != nil {
				return true, cerr
			}
			return true, checkpoint(ctx, w.store, run)
		case signalPause:
			run.Status = domain.RunStatusPaused
			return true, checkpoint(ctx, w.store, run)
		case signalResume:
			// A resume signal observed before a pause request is a no-op;
			// Resume is meaningful only against a freshly-loaded workflow
			// whose run.Status is already PAUSED.
			return false, nil
		}
	default:
	}
	return false, nil
}

// drive runs the full phase sequence, checkpointing after each transition
// and honoring signals between phases.
func (w *Workflow) drive(ctx context.Context) error {
	run := w.run

	phases := []struct {
		phase domain.Phase
		run   func(context.Context) error
	}{
		{domain.PhaseInitializing, func(ctx context.Context) error { return w.activities.Initialize(ctx, run) }},
		{domain.PhaseIndexing, func(ctx context.Context) error { return w.activities.Index(ctx, run) }},
		{domain.PhaseSearching, func(ctx context.Context) error { return w.activities.Search(ctx, run) }},
		{domain.PhaseAnalyzing, w.runParallelAnalysis},
		{domain.PhaseCorrelation, func(ctx context.Context) error {
			if w.activities.Correlate == nil {
				return nil
			}
			return w.activities.Correlate(ctx, run)
		}},
		{domain.PhaseHypothesisGen, func(ctx context.Context) error { return w.activities.HypothesisGeneration(ctx, run) }},
		{domain.PhaseDossierGen, func(ctx context.Context) error { return w.activities.DossierGeneration(ctx, run) }},
	}

	if run.Status == domain.RunStatusPending {
		run.Status = domain.RunStatusRunning
	}

	for _, step := range phases {
		if stop, err := w.checkSignal(ctx, run); stop {
			return err
		}

		run.Phase = step.phase
		w.setProgress(domain.PhaseProgress[step.phase])
		if err := checkpoint(ctx, w.store, run); err != nil {
			return err
		}

		if err := step.run(ctx); err != nil {
			slog.Error("orchestrator: phase failed",
				slog.String("run_id", run.ID), slog.String("phase", string(step.phase)), slog.String("error", err.Error()))
			if ferr := run.Fail(err.Error()); ferr != nil {
				return ferr
			}
			return checkpoint(ctx, w.store, run)
		}

		if stop, err := w.checkSignal(ctx, run); stop {
			return err
		}
	}

	run.Phase = domain.PhaseCompleted
	if err := run.Complete(); err != nil {
		return err
	}
	return checkpoint(ctx, w.store, run)
}

// runParallelAnalysis fans the three analysis activities out in parallel
// via errgroup and joins on all three before the workflow advances to its
// own CORRELATION phase.
func (w *Workflow) runParallelAnalysis(ctx context.Context) error {
	run := w.run
	g, gctx := errgroup.WithContext(ctx)

	if w.activities.AnalyzeDocuments != nil {
		g.Go(func() error { return w.activities.AnalyzeDocuments(gctx, run) })
	}
	if w.activities.AnalyzeTranscripts != nil {
		g.Go(func() error { return w.activities.AnalyzeTranscripts(gctx, run) })
	}
	if w.activities.AnalyzeCommunications != nil {
		g.Go(func() error { return w.activities.AnalyzeCommunications(gctx, run) })
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("orchestrator: parallel analysis failed: %w", err)
	}
	return nil
}
