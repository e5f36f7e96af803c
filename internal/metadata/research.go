package metadata

import (
	"context"
	"fmt"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// SaveResearchRun inserts or replaces a ResearchRun row, the durable
// checkpoint C6's orchestrator writes after every phase transition.
func (s *Store) SaveResearchRun(ctx context.Context, r *domain.ResearchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO research_runs (id, case_id, query, defense_theory, status, phase,
			started_at, completed_at, errors_json, metadata_json, workflow_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, phase=excluded.phase,
			completed_at=excluded.completed_at, errors_json=excluded.errors_json,
			metadata_json=excluded.metadata_json, workflow_id=excluded.workflow_id`,
		r.ID, r.CaseID, r.Query, r.DefenseTheory, r.Status, r.Phase,
		r.StartedAt, r.CompletedAt, marshalJSON(r.Errors), marshalJSON(r.Metadata), r.WorkflowID)
	if err != nil {
		return fmt.Errorf("metadata: save research run: %w", err)
	}
	return nil
}

func scanResearchRun(row scannable, id string) (*domain.ResearchRun, error) {
	var r domain.ResearchRun
	var errsJSON, metaJSON string
	if err := row.Scan(&r.ID, &r.CaseID, &r.Query, &r.DefenseTheory, &r.Status, &r.Phase,
		&r.StartedAt, &r.CompletedAt, &errsJSON, &metaJSON, &r.WorkflowID); err != nil {
		return nil, wrapNotFound(err, "research_run", id)
	}
	if err := unmarshalJSON(errsJSON, &r.Errors); err != nil {
		return nil, fmt.Errorf("metadata: decode research run errors: %w", err)
	}
	if err := unmarshalJSON(metaJSON, &r.Metadata); err != nil {
		return nil, fmt.Errorf("metadata: decode research run metadata: %w", err)
	}
	return &r, nil
}

const researchRunColumns = `id, case_id, query, defense_theory, status, phase,
	started_at, completed_at, errors_json, metadata_json, workflow_id`

// GetResearchRun fetches a ResearchRun by ID.
func (s *Store) GetResearchRun(ctx context.Context, id string) (*domain.ResearchRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT `+researchRunColumns+` FROM research_runs WHERE id = ?`, id)
	return scanResearchRun(row, id)
}

// ListResearchRunsOptions filters ListResearchRuns.
type ListResearchRunsOptions struct {
	Status domain.RunStatus
	Limit  int
	Offset int
}

// ListResearchRuns lists runs for a case, optionally filtered by status,
// sorted by started_at desc and paginated — the contract GetFindings'
// sibling query handler, ListResearchRuns, requires.
func (s *Store) ListResearchRuns(ctx context.Context, caseID string, opts ListResearchRunsOptions) ([]*domain.ResearchRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `SELECT ` + researchRunColumns + ` FROM research_runs WHERE case_id = ?`
	args := []interface{}{caseID}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY started_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata: list research runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.ResearchRun
	for rows.Next() {
		r, err := scanResearchRun(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
