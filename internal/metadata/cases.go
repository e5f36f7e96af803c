package metadata

import (
	"context"
	"fmt"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// SaveCase inserts or replaces a Case row.
func (s *Store) SaveCase(ctx context.Context, c *domain.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cases (id, case_number, client, matter_type, status, team_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			case_number=excluded.case_number, client=excluded.client,
			matter_type=excluded.matter_type, status=excluded.status,
			team_id=excluded.team_id, updated_at=excluded.updated_at`,
		c.ID, c.CaseNumber, c.Client, c.MatterType, c.Status, c.TeamID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("metadata: save case: %w", err)
	}
	return nil
}

// GetCase fetches a Case by ID.
func (s *Store) GetCase(ctx context.Context, id string) (*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, case_number, client, matter_type, status, team_id, created_at, updated_at
		FROM cases WHERE id = ?`, id)
	var c domain.Case
	if err := row.Scan(&c.ID, &c.CaseNumber, &c.Client, &c.MatterType, &c.Status, &c.TeamID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, wrapNotFound(err, "case", id)
	}
	return &c, nil
}

// GetCaseByCaseNumber fetches a Case by its globally-unique case_number.
func (s *Store) GetCaseByCaseNumber(ctx context.Context, caseNumber string) (*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, case_number, client, matter_type, status, team_id, created_at, updated_at
		FROM cases WHERE case_number = ?`, caseNumber)
	var c domain.Case
	if err := row.Scan(&c.ID, &c.CaseNumber, &c.Client, &c.MatterType, &c.Status, &c.TeamID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, wrapNotFound(err, "case", caseNumber)
	}
	return &c, nil
}

// ListCasesByTeam lists cases for a team, optionally filtered by status.
func (s *Store) ListCasesByTeam(ctx context.Context, teamID string, status domain.CaseStatus) ([]*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, case_number, client, matter_type, status, team_id, created_at, updated_at
		FROM cases WHERE team_id = ?`
	args := []interface{}{teamID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata: list cases: %w", err)
	}
	defer rows.Close()

	var out []*domain.Case
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(&c.ID, &c.CaseNumber, &c.Client, &c.MatterType, &c.Status, &c.TeamID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("metadata: scan case: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
