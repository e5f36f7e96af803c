package metadata

import (
	"context"
	"fmt"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// SaveEvidence inserts or replaces an Evidence row, including its segments.
func (s *Store) SaveEvidence(ctx context.Context, e *domain.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evidence (id, case_id, type, filename, size, status, segments_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, segments_json=excluded.segments_json,
			updated_at=excluded.updated_at`,
		e.ID, e.CaseID, e.Type, e.Filename, e.Size, e.Status, marshalJSON(e.Segments), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("metadata: save evidence: %w", err)
	}
	return nil
}

// GetEvidence fetches an Evidence record by ID, including segments.
func (s *Store) GetEvidence(ctx context.Context, id string) (*domain.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, case_id, type, filename, size, status, segments_json, created_at, updated_at
		FROM evidence WHERE id = ?`, id)
	return scanEvidence(row, id)
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanEvidence(row scannable, id string) (*domain.Evidence, error) {
	var e domain.Evidence
	var segJSON string
	if err := row.Scan(&e.ID, &e.CaseID, &e.Type, &e.Filename, &e.Size, &e.Status, &segJSON, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, wrapNotFound(err, "evidence", id)
	}
	if err := unmarshalJSON(segJSON, &e.Segments); err != nil {
		return nil, fmt.Errorf("metadata: decode segments for evidence %s: %w", e.ID, err)
	}
	return &e, nil
}

// ListEvidenceByCase lists evidence records for one case, newest first.
func (s *Store) ListEvidenceByCase(ctx context.Context, caseID string) ([]*domain.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, type, filename, size, status, segments_json, created_at, updated_at
		FROM evidence WHERE case_id = ? ORDER BY created_at DESC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("metadata: list evidence: %w", err)
	}
	defer rows.Close()

	var out []*domain.Evidence
	for rows.Next() {
		e, err := scanEvidence(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEvidence removes an Evidence row; chunks, vectors, and lexical
// entries are removed separately by the caller (C0/C2), not cascaded here,
// since they live outside the relational store.
func (s *Store) DeleteEvidence(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM evidence WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("metadata: delete evidence: %w", err)
	}
	return nil
}
