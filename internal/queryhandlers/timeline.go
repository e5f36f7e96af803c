package queryhandlers

import (
	"context"
	"time"

	"github.com/legalease-ai/evidence-core/internal/domain"
	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
	"github.com/legalease-ai/evidence-core/internal/metadata"
)

// GetTimelineQuery fetches chronologically-ordered timeline events for a
// case, filtered by date range, entity, and event type.
type GetTimelineQuery struct {
	CaseID     string
	From       time.Time
	To         time.Time
	EntityID   string
	EventTypes []string
	Limit      int
}

func (q GetTimelineQuery) Validate() error {
	if q.CaseID == "" {
		return &evidenceerrors.ValidationError{Field: "case_id", Message: "case_id is required"}
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return &evidenceerrors.ValidationError{Field: "date_range", Message: "to must not precede from"}
	}
	return nil
}

// GetTimelineResult is the filtered, sorted, limited event set.
type GetTimelineResult struct {
	Events []domain.TimelineEvent
}

func (d Deps) handleGetTimeline(ctx context.Context, q GetTimelineQuery) (GetTimelineResult, error) {
	events, err := d.Store.GetTimelineByCase(ctx, q.CaseID, metadata.GetTimelineFilter{
		From:       q.From,
		To:         q.To,
		EntityID:   q.EntityID,
		EventTypes: q.EventTypes,
		Limit:      q.Limit,
	})
	if err != nil {
		return GetTimelineResult{}, err
	}
	return GetTimelineResult{Events: events}, nil
}
