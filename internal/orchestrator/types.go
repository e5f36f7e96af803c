// Package orchestrator implements the Research Orchestrator (C6): a
// multi-phase workflow that survives process restarts via a durable
// checkpoint written after every phase transition, fans the three analysis
// activities out in parallel with a join barrier ahead of its own
// CORRELATION phase, and accepts external pause/resume/cancel signals at
// the next inter-activity checkpoint — the background-goroutine-with-stop-
// channel lifecycle generalized from internal/async.BackgroundIndexer,
// with checkpoint persistence generalized from internal/session's
// atomic-write session.json pattern.
package orchestrator

import (
	"context"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// Activities bundles the idempotent phase implementations a Workflow
// drives. Each activity receives the run's current state and mutates it
// in place (appending findings, errors); activities MUST be safe to retry
// or re-run after a resume, since the workflow engine offers only
// at-least-once execution.
type Activities struct {
	Initialize            Activity
	Index                 Activity
	Search                Activity
	AnalyzeDocuments      Activity
	AnalyzeTranscripts    Activity
	AnalyzeCommunications Activity
	Correlate             Activity
	HypothesisGeneration  Activity
	DossierGeneration     Activity
}

// Activity is one idempotent unit of work within a phase.
type Activity func(ctx context.Context, run *domain.ResearchRun) error

// CheckpointStore persists and loads a ResearchRun's durable state. The
// metadata store (internal/metadata.Store.SaveResearchRun/GetResearchRun)
// satisfies this directly.
type CheckpointStore interface {
	SaveResearchRun(ctx context.Context, run *domain.ResearchRun) error
	GetResearchRun(ctx context.Context, id string) (*domain.ResearchRun, error)
}

// signal is sent over a Workflow's signal channel to request an
// out-of-band phase transition at the next checkpoint boundary.
type signal int

const (
	signalCancel signal = iota
	signalPause
	signalResume
)
