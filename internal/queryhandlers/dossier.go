package queryhandlers

import (
	"context"

	"github.com/legalease-ai/evidence-core/internal/domain"
	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
)

// GetDossierQuery fetches the synthesized report for a research run.
type GetDossierQuery struct {
	ResearchRunID string
}

func (q GetDossierQuery) Validate() error {
	if q.ResearchRunID == "" {
		return &evidenceerrors.ValidationError{Field: "research_run_id", Message: "research_run_id is required"}
	}
	return nil
}

// GetDossierResult is the ordered report: executive summary, sections,
// citations appendix, and any exported file references.
type GetDossierResult struct {
	Dossier *domain.Dossier
}

func (d Deps) handleGetDossier(ctx context.Context, q GetDossierQuery) (GetDossierResult, error) {
	dossier, err := d.Store.GetDossierByRun(ctx, q.ResearchRunID)
	if err != nil {
		return GetDossierResult{}, err
	}
	return GetDossierResult{Dossier: dossier}, nil
}
