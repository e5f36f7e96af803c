package domain

import (
	"fmt"
	"time"
)

// RunStatus is the top-level lifecycle state of a Research Run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusPaused    RunStatus = "PAUSED"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
	RunStatusCancelled RunStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further phase transitions.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// Phase is a step of the deep-research workflow (see C6).
type Phase string

const (
	PhaseInitializing        Phase = "INITIALIZING"
	PhaseIndexing            Phase = "INDEXING"
	PhaseSearching           Phase = "SEARCHING"
	PhaseAnalyzing           Phase = "ANALYZING"
	PhaseCorrelation         Phase = "CORRELATION"
	PhaseHypothesisGen       Phase = "HYPOTHESIS_GENERATION"
	PhaseDossierGen          Phase = "DOSSIER_GENERATION"
	PhaseCompleted           Phase = "COMPLETED"
)

// PhaseProgress is the fixed phase→percentage map used by GetResearchStatus.
// Carried verbatim from the prior implementation's progress calculation.
var PhaseProgress = map[Phase]float64{
	PhaseInitializing:  5.0,
	PhaseIndexing:      15.0,
	PhaseSearching:     35.0,
	PhaseAnalyzing:     60.0,
	PhaseCorrelation:   70.0,
	PhaseHypothesisGen: 80.0,
	PhaseDossierGen:    95.0,
	PhaseCompleted:     100.0,
}

// ResearchRun is one execution of the deep-research workflow for a case.
type ResearchRun struct {
	ID             string
	CaseID         string
	Query          string
	DefenseTheory  string
	Status         RunStatus
	Phase          Phase
	StartedAt      time.Time
	CompletedAt    *time.Time
	FindingIDs     []string
	Errors         []string
	Metadata       map[string]string
	WorkflowID     string
}

// NewResearchRun validates and constructs a ResearchRun in PENDING status.
func NewResearchRun(id, caseID, query string) (*ResearchRun, error) {
	if id == "" || caseID == "" {
		return nil, fmt.Errorf("domain: research run requires id and case_id")
	}
	return &ResearchRun{
		ID:        id,
		CaseID:    caseID,
		Query:     query,
		Status:    RunStatusPending,
		Phase:     PhaseInitializing,
		StartedAt: time.Now().UTC(),
		Metadata:  map[string]string{},
	}, nil
}

// Complete transitions the run to COMPLETED, setting CompletedAt.
// It is an error to complete a run whose CompletedAt would precede
// StartedAt, or to transition an already-terminal run.
func (r *ResearchRun) Complete() error {
	if r.Status.Terminal() {
		return fmt.Errorf("domain: research run %s is already terminal (%s)", r.ID, r.Status)
	}
	now := time.Now().UTC()
	r.Status = RunStatusCompleted
	r.Phase = PhaseCompleted
	r.CompletedAt = &now
	return nil
}

// Fail transitions the run to FAILED, recording err, and stamping
// CompletedAt.
func (r *ResearchRun) Fail(reason string) error {
	if r.Status.Terminal() {
		return fmt.Errorf("domain: research run %s is already terminal (%s)", r.ID, r.Status)
	}
	now := time.Now().UTC()
	r.Status = RunStatusFailed
	r.CompletedAt = &now
	r.Errors = append(r.Errors, reason)
	return nil
}

// Cancel transitions the run to CANCELLED at its current phase (the
// checkpoint at which the cancel signal was observed).
func (r *ResearchRun) Cancel() error {
	if r.Status.Terminal() {
		return fmt.Errorf("domain: research run %s is already terminal (%s)", r.ID, r.Status)
	}
	now := time.Now().UTC()
	r.Status = RunStatusCancelled
	r.CompletedAt = &now
	return nil
}

// ProgressPct computes the progress percentage per GetResearchStatus's
// phase-map rule: terminal COMPLETED/FAILED pin to 100, CANCELLED pins to
// the phase-map value of the phase at which it was cancelled, and RUNNING
// uses the phase map unless overridden by live workflow progress.
func (r *ResearchRun) ProgressPct(liveProgress *float64) float64 {
	switch r.Status {
	case RunStatusCompleted, RunStatusFailed:
		return 100.0
	case RunStatusCancelled:
		return PhaseProgress[r.Phase]
	case RunStatusRunning:
		if liveProgress != nil {
			return *liveProgress
		}
		return PhaseProgress[r.Phase]
	default:
		return PhaseProgress[r.Phase]
	}
}
