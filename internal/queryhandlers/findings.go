package queryhandlers

import (
	"context"

	"github.com/legalease-ai/evidence-core/internal/domain"
	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
	"github.com/legalease-ai/evidence-core/internal/metadata"
)

// GetFindingsQuery fetches findings for a research run, filtered, sorted by
// (relevance desc, confidence desc), and paginated.
type GetFindingsQuery struct {
	ResearchRunID string
	FindingTypes  []domain.FindingType
	MinConfidence float64
	MinRelevance  float64
	Tags          []string
	Limit         int
	Offset        int
}

// Validate enforces the 1 ≤ limit ≤ 1000 pagination bound mirrored from
// the original's ValidationMiddleware contract.
func (q GetFindingsQuery) Validate() error {
	if q.ResearchRunID == "" {
		return &evidenceerrors.ValidationError{Field: "research_run_id", Message: "research_run_id is required"}
	}
	if q.Limit < 0 || q.Limit > 1000 {
		return &evidenceerrors.ValidationError{Field: "limit", Message: "limit must be between 1 and 1000"}
	}
	return nil
}

// GetFindingsResult is the filtered, sorted, paginated finding set.
type GetFindingsResult struct {
	Findings []*domain.Finding
}

func (d Deps) handleGetFindings(ctx context.Context, q GetFindingsQuery) (GetFindingsResult, error) {
	findings, err := d.Store.GetFindingsByRun(ctx, q.ResearchRunID, metadata.GetFindingsFilter{
		FindingTypes:  q.FindingTypes,
		MinConfidence: q.MinConfidence,
		MinRelevance:  q.MinRelevance,
		Tags:          q.Tags,
		Limit:         q.Limit,
		Offset:        q.Offset,
	})
	if err != nil {
		return GetFindingsResult{}, err
	}
	return GetFindingsResult{Findings: findings}, nil
}
