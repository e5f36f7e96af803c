package domain

import (
	"fmt"
	"sort"
	"time"
)

// TimelineEvent is one chronologically-ordered occurrence assembled by the
// Correlation Engine from TIMELINE_EVENT findings.
type TimelineEvent struct {
	ID               string
	CaseID           string
	Timestamp        time.Time
	EventType        string
	Description      string
	Participants     []string
	SourceCitations  []Citation
}

// SortTimeline sorts events ascending by timestamp, the order required by
// GetTimeline and the testable timeline-monotonicity property.
func SortTimeline(events []TimelineEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// ValidateTimelineOrder returns an error if events are not monotonically
// non-decreasing by timestamp; used in tests asserting the invariant.
func ValidateTimelineOrder(events []TimelineEvent) error {
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			return fmt.Errorf("domain: timeline out of order at index %d (%s before %s)",
				i, events[i].Timestamp, events[i-1].Timestamp)
		}
	}
	return nil
}
