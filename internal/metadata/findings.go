package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// SaveFindings batch-inserts findings produced by one correlation or
// analysis pass within a single transaction.
func (s *Store) SaveFindings(ctx context.Context, findings []*domain.Finding) error {
	if len(findings) == 0 {
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
		INSERT INTO findings (id, research_run_id, finding_type, text, entities_json,
			citations_json, confidence, relevance, tags_json, event_timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text=excluded.text, confidence=excluded.confidence, relevance=excluded.relevance,
			tags_json=excluded.tags_json`)
	if err != nil {
		return fmt.Errorf("metadata: prepare finding insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		_, err := stmt.ExecContext(ctx, f.ID, f.ResearchRunID, f.FindingType, f.Text,
			marshalJSON(f.Entities), marshalJSON(f.Citations), f.Confidence, f.Relevance,
			marshalJSON(f.Tags), f.EventTimestamp, f.CreatedAt)
		if err != nil {
			return fmt.Errorf("metadata: insert finding %s: %w", f.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("metadata: commit findings: %w", err)
	}
	return nil
}

func scanFinding(row scannable) (*domain.Finding, error) {
	var f domain.Finding
	var entJSON, citJSON, tagJSON string
	if err := row.Scan(&f.ID, &f.ResearchRunID, &f.FindingType, &f.Text, &entJSON,
		&citJSON, &f.Confidence, &f.Relevance, &tagJSON, &f.EventTimestamp, &f.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(entJSON, &f.Entities); err != nil {
		return nil, fmt.Errorf("metadata: decode finding entities: %w", err)
	}
	if err := unmarshalJSON(citJSON, &f.Citations); err != nil {
		return nil, fmt.Errorf("metadata: decode finding citations: %w", err)
	}
	if err := unmarshalJSON(tagJSON, &f.Tags); err != nil {
		return nil, fmt.Errorf("metadata: decode finding tags: %w", err)
	}
	return &f, nil
}

const findingColumns = `id, research_run_id, finding_type, text, entities_json,
	citations_json, confidence, relevance, tags_json, event_timestamp, created_at`

// GetFindingsFilter narrows GetFindings' result set per the query
// handler's contract.
type GetFindingsFilter struct {
	FindingTypes  []domain.FindingType
	MinConfidence float64
	MinRelevance  float64
	Tags          []string
	Limit         int
	Offset        int
}

// GetFindingsByRun fetches findings for a research run, filters in-process
// (SQLite's JSON1 tag matching would need an extension not in this stack),
// sorts by (relevance desc, confidence desc), and paginates — exactly
// GetFindings' contract in C5.
func (s *Store) GetFindingsByRun(ctx context.Context, runID string, filter GetFindingsFilter) ([]*domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+findingColumns+` FROM findings WHERE research_run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("metadata: list findings: %w", err)
	}
	defer rows.Close()

	var all []*domain.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, fmt.Errorf("metadata: scan finding: %w", err)
		}
		if !matchesFilter(f, filter) {
			continue
		}
		all = append(all, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Relevance != all[j].Relevance {
			return all[i].Relevance > all[j].Relevance
		}
		return all[i].Confidence > all[j].Confidence
	})

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	start := filter.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func matchesFilter(f *domain.Finding, filter GetFindingsFilter) bool {
	if f.Confidence < filter.MinConfidence || f.Relevance < filter.MinRelevance {
		return false
	}
	if len(filter.FindingTypes) > 0 {
		ok := false
		for _, t := range filter.FindingTypes {
			if f.FindingType == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(filter.Tags) > 0 {
		for _, want := range filter.Tags {
			found := false
			for _, have := range f.Tags {
				if have == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// GetFinding fetches one finding by ID, used to validate citations still
// reference a live chunk.
func (s *Store) GetFinding(ctx context.Context, id string) (*domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT `+findingColumns+` FROM findings WHERE id = ?`, id)
	f, err := scanFinding(row)
	if err == sql.ErrNoRows {
		return nil, wrapNotFound(err, "finding", id)
	}
	return f, err
}
