package correlation

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// coLocationWindow is the time span within which two TIMELINE_EVENT
// findings are considered co-located for pattern detection.
const coLocationWindow = 24 * 60 * 60 // seconds, i.e. 24h

// detectPatterns aggregates findings by type (pattern per type with count
// ≥ 2), and emits additional patterns for clusters of findings that
// co-locate in time (≤ 24h apart) or share a participant.
func detectPatterns(caseID string, findings []*domain.Finding) []Pattern {
	var patterns []Pattern
	patterns = append(patterns, patternsByType(caseID, findings)...)
	patterns = append(patterns, patternsByTimeCoLocation(caseID, findings)...)
	patterns = append(patterns, patternsByParticipant(caseID, findings)...)
	return patterns
}

func patternsByType(caseID string, findings []*domain.Finding) []Pattern {
	byType := make(map[domain.FindingType][]string)
	for _, f := range findings {
		byType[f.FindingType] = append(byType[f.FindingType], f.ID)
	}

	types := make([]domain.FindingType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var out []Pattern
	for _, t := range types {
		ids := byType[t]
		if len(ids) < 2 {
			continue
		}
		out = append(out, Pattern{
			ID:          uuid.NewString(),
			CaseID:      caseID,
			Kind:        "finding_type",
			Description: fmt.Sprintf("%d findings of type %s", len(ids), t),
			FindingIDs:  ids,
		})
	}
	return out
}

func patternsByTimeCoLocation(caseID string, findings []*domain.Finding) []Pattern {
	var timed []*domain.Finding
	for _, f := range findings {
		if f.FindingType == domain.FindingTypeTimelineEvent && f.EventTimestamp != nil {
			timed = append(timed, f)
		}
	}
	sort.Slice(timed, func(i, j int) bool { return timed[i].EventTimestamp.Before(*timed[j].EventTimestamp) })

	var out []Pattern
	var cluster []string
	flush := func() {
		if len(cluster) >= 2 {
			out = append(out, Pattern{
				ID:          uuid.NewString(),
				CaseID:      caseID,
				Kind:        "time_colocation",
				Description: fmt.Sprintf("%d events within a 24h window", len(cluster)),
				FindingIDs:  append([]string(nil), cluster...),
			})
		}
		cluster = nil
	}

	for i, f := range timed {
		if i == 0 {
			cluster = []string{f.ID}
			continue
		}
		prev := timed[i-1]
		if f.EventTimestamp.Sub(*prev.EventTimestamp).Seconds() <= coLocationWindow {
			cluster = append(cluster, f.ID)
		} else {
			flush()
			cluster = []string{f.ID}
		}
	}
	flush()
	return out
}

func patternsByParticipant(caseID string, findings []*domain.Finding) []Pattern {
	byEntity := make(map[string][]string)
	labelByKey := make(map[string]string)
	for _, f := range findings {
		seen := make(map[string]struct{})
		for _, e := range f.Entities {
			key := domain.CanonicalLabel(e)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			byEntity[key] = append(byEntity[key], f.ID)
			labelByKey[key] = e
		}
	}

	keys := make([]string, 0, len(byEntity))
	for k := range byEntity {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Pattern
	for _, k := range keys {
		ids := byEntity[k]
		if len(ids) < 2 {
			continue
		}
		out = append(out, Pattern{
			ID:          uuid.NewString(),
			CaseID:      caseID,
			Kind:        "shared_participant",
			Description: fmt.Sprintf("%d findings reference %s", len(ids), labelByKey[k]),
			FindingIDs:  ids,
		})
	}
	return out
}
