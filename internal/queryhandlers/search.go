package queryhandlers

import (
	"context"

	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

// SearchEvidenceQuery is C5's delegation to C3, validated before dispatch
// by querybus.ValidationMiddleware via Validate.
type SearchEvidenceQuery struct {
	CaseID     string
	Collection string
	Text       string
	Filters    retriever.Filters
	TopK       int
	Mode       retriever.Mode
	Options    retriever.Options
}

// Validate enforces the non-empty-query and case-id-required invariants
// before the handler ever runs.
func (q SearchEvidenceQuery) Validate() error {
	if q.CaseID == "" {
		return &evidenceerrors.ValidationError{Field: "case_id", Message: "case_id is required"}
	}
	if q.Text == "" {
		return &evidenceerrors.ValidationError{Field: "text", Message: "query text must not be empty"}
	}
	return nil
}

// SearchEvidenceResult wraps the retriever's enriched, ranked hits.
type SearchEvidenceResult struct {
	Results []retriever.Result
}

func (d Deps) handleSearchEvidence(ctx context.Context, q SearchEvidenceQuery) (SearchEvidenceResult, error) {
	engine, err := d.Retrieve.Engine(ctx, q.CaseID, q.Collection)
	if err != nil {
		return SearchEvidenceResult{}, err
	}
	results, err := engine.Search(ctx, retriever.Query{
		Text:    q.Text,
		Filters: q.Filters,
		TopK:    q.TopK,
		Mode:    q.Mode,
		Options: q.Options,
	})
	if err != nil {
		return SearchEvidenceResult{}, err
	}
	return SearchEvidenceResult{Results: results}, nil
}
