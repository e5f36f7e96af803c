package correlation

import (
	"github.com/legalease-ai/evidence-core/internal/domain"
)

// assembleTimeline collects TIMELINE_EVENT findings with a valid
// timestamp and sorts them ascending, attaching each event's source
// citations.
func assembleTimeline(caseID string, findings []*domain.Finding) []domain.TimelineEvent {
	var events []domain.TimelineEvent
	for _, f := range findings {
		if f.FindingType != domain.FindingTypeTimelineEvent || f.EventTimestamp == nil {
			continue
		}
		events = append(events, domain.TimelineEvent{
			ID:              f.ID,
			CaseID:          caseID,
			Timestamp:       *f.EventTimestamp,
			EventType:       string(f.FindingType),
			Description:     f.Text,
			Participants:    f.Entities,
			SourceCitations: f.Citations,
		})
	}
	domain.SortTimeline(events)
	return events
}
