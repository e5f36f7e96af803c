package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// SaveTimelineEvents batch-upserts timeline events assembled by C7 from
// TIMELINE_EVENT findings.
func (s *Store) SaveTimelineEvents(ctx context.Context, events []domain.TimelineEvent) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metadata: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO timeline_events (id, case_id, timestamp, event_type, description, participants_json, citations_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET description=excluded.description`)
	if err != nil {
		return fmt.Errorf("metadata: prepare timeline insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx, e.ID, e.CaseID, e.Timestamp, e.EventType, e.Description,
			marshalJSON(e.Participants), marshalJSON(e.SourceCitations))
		if err != nil {
			return fmt.Errorf("metadata: insert timeline event %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// GetTimelineFilter narrows GetTimeline's result set per its contract.
type GetTimelineFilter struct {
	From       time.Time
	To         time.Time
	EntityID   string
	EventTypes []string
	Limit      int
}

// GetTimelineByCase fetches events for a case, filters, sorts ascending by
// timestamp, and limits — GetTimeline's contract in C5.
func (s *Store) GetTimelineByCase(ctx context.Context, caseID string, filter GetTimelineFilter) ([]domain.TimelineEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, case_id, timestamp, event_type, description, participants_json, citations_json
		FROM timeline_events WHERE case_id = ?`
	args := []interface{}{caseID}
	if !filter.From.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += ` AND timestamp <= ?`
		args = append(args, filter.To)
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata: list timeline events: %w", err)
	}
	defer rows.Close()

	var out []domain.TimelineEvent
	for rows.Next() {
		var e domain.TimelineEvent
		var partJSON, citJSON string
		if err := rows.Scan(&e.ID, &e.CaseID, &e.Timestamp, &e.EventType, &e.Description, &partJSON, &citJSON); err != nil {
			return nil, fmt.Errorf("metadata: scan timeline event: %w", err)
		}
		if err := unmarshalJSON(partJSON, &e.Participants); err != nil {
			return nil, fmt.Errorf("metadata: decode participants: %w", err)
		}
		if err := unmarshalJSON(citJSON, &e.SourceCitations); err != nil {
			return nil, fmt.Errorf("metadata: decode source citations: %w", err)
		}
		if !matchesTimelineFilter(e, filter) {
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	domain.SortTimeline(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchesTimelineFilter(e domain.TimelineEvent, filter GetTimelineFilter) bool {
	if filter.EntityID != "" {
		found := false
		for _, p := range e.Participants {
			if p == filter.EntityID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.EventTypes) > 0 {
		found := false
		for _, t := range filter.EventTypes {
			if t == e.EventType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
