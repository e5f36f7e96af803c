package queryhandlers

import (
	"context"

	"github.com/legalease-ai/evidence-core/internal/domain"
	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
)

// GetResearchStatusQuery fetches a run's current status and computes its
// progress percentage, merging in live workflow progress when available.
type GetResearchStatusQuery struct {
	ResearchRunID string
}

func (q GetResearchStatusQuery) Validate() error {
	if q.ResearchRunID == "" {
		return &evidenceerrors.ValidationError{Field: "research_run_id", Message: "research_run_id is required"}
	}
	return nil
}

// GetResearchStatusResult reports the run's status, phase, and computed
// progress_pct per the phase-map rule (domain.ResearchRun.ProgressPct):
// COMPLETED/FAILED pin to 100, CANCELLED pins to the phase-map value at the
// phase it was cancelled at, RUNNING uses live progress if the workflow
// engine has it, else the static phase map.
type GetResearchStatusResult struct {
	Run         *domain.ResearchRun
	ProgressPct float64
}

func (d Deps) handleGetResearchStatus(ctx context.Context, q GetResearchStatusQuery) (GetResearchStatusResult, error) {
	run, err := d.Store.GetResearchRun(ctx, q.ResearchRunID)
	if err != nil {
		return GetResearchStatusResult{}, err
	}

	var live *float64
	if d.Live != nil && run.Status == domain.RunStatusRunning {
		if pct, ok := d.Live.LiveProgress(ctx, run.ID); ok {
			live = &pct
		}
	}

	return GetResearchStatusResult{Run: run, ProgressPct: run.ProgressPct(live)}, nil
}
