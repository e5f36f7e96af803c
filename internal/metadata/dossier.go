package metadata

import (
	"context"
	"fmt"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// SaveDossier inserts or replaces the synthesized report for a research run.
func (s *Store) SaveDossier(ctx context.Context, d *domain.Dossier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dossiers (id, research_run_id, executive_summary, sections_json,
			citations_json, file_paths_json, generated_at, word_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			executive_summary=excluded.executive_summary, sections_json=excluded.sections_json,
			citations_json=excluded.citations_json, file_paths_json=excluded.file_paths_json,
			word_count=excluded.word_count`,
		d.ID, d.ResearchRunID, d.ExecutiveSummary, marshalJSON(d.Sections),
		marshalJSON(d.CitationsAppendix), marshalJSON(d.FilePaths), d.GeneratedAt, d.WordCount)
	if err != nil {
		return fmt.Errorf("metadata: save dossier: %w", err)
	}
	return nil
}

// GetDossierByRun fetches the dossier for a research run.
func (s *Store) GetDossierByRun(ctx context.Context, runID string) (*domain.Dossier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, research_run_id, executive_summary, sections_json, citations_json,
			file_paths_json, generated_at, word_count
		FROM dossiers WHERE research_run_id = ?`, runID)

	var d domain.Dossier
	var secJSON, citJSON, pathsJSON string
	if err := row.Scan(&d.ID, &d.ResearchRunID, &d.ExecutiveSummary, &secJSON, &citJSON,
		&pathsJSON, &d.GeneratedAt, &d.WordCount); err != nil {
		return nil, wrapNotFound(err, "dossier", runID)
	}
	if err := unmarshalJSON(secJSON, &d.Sections); err != nil {
		return nil, fmt.Errorf("metadata: decode dossier sections: %w", err)
	}
	if err := unmarshalJSON(citJSON, &d.CitationsAppendix); err != nil {
		return nil, fmt.Errorf("metadata: decode dossier citations: %w", err)
	}
	if err := unmarshalJSON(pathsJSON, &d.FilePaths); err != nil {
		return nil, fmt.Errorf("metadata: decode dossier file paths: %w", err)
	}
	return &d, nil
}
