package queryhandlers

import (
	"context"

	"github.com/legalease-ai/evidence-core/internal/domain"
	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
	"github.com/legalease-ai/evidence-core/internal/metadata"
)

// ListResearchRunsQuery lists runs for a case, optionally filtered by
// status, sorted by started_at desc and paginated.
type ListResearchRunsQuery struct {
	CaseID string
	Status domain.RunStatus
	Limit  int
	Offset int
}

func (q ListResearchRunsQuery) Validate() error {
	if q.CaseID == "" {
		return &evidenceerrors.ValidationError{Field: "case_id", Message: "case_id is required"}
	}
	if q.Limit < 0 || q.Limit > 1000 {
		return &evidenceerrors.ValidationError{Field: "limit", Message: "limit must be between 1 and 1000"}
	}
	return nil
}

// ListResearchRunsResult is the case-scoped, paginated run list.
type ListResearchRunsResult struct {
	Runs []*domain.ResearchRun
}

func (d Deps) handleListResearchRuns(ctx context.Context, q ListResearchRunsQuery) (ListResearchRunsResult, error) {
	runs, err := d.Store.ListResearchRuns(ctx, q.CaseID, metadata.ListResearchRunsOptions{
		Status: q.Status,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return ListResearchRunsResult{}, err
	}
	return ListResearchRunsResult{Runs: runs}, nil
}
