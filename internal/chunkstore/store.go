// Package chunkstore implements the chunk-lookup side of the dual-store
// write path (C2): a per-collection SQLite table mapping a chunk ID back to
// the text, evidence ID, chunk type, and page the hybrid retriever (C3)
// needs to turn a bare vector or lexical hit into a citable Result. Vectors
// and lexical postings only ever carry an ID; this store is where the
// content they point at actually lives, following the same one-SQLite-file
// convention as internal/metadata and the same pure-Go driver.
package chunkstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	evidence_id TEXT NOT NULL,
	case_id     TEXT NOT NULL,
	text        TEXT NOT NULL,
	chunk_type  TEXT NOT NULL,
	position    INTEGER NOT NULL,
	page        INTEGER,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_evidence ON chunks(evidence_id);
`

// Store is one collection's chunk-lookup table.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (creating if absent) the chunk-lookup database at path. path=""
// opens a private in-memory database, used by tests.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("chunkstore: create directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("chunkstore: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts a batch of chunks, keyed by their content-addressable ID. A
// re-index of identical evidence writes the same IDs, so this is idempotent.
func (s *Store) Save(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("chunkstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, evidence_id, case_id, text, chunk_type, position, page, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text=excluded.text, chunk_type=excluded.chunk_type, page=excluded.page`)
	if err != nil {
		return fmt.Errorf("chunkstore: prepare save: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		var page any
		if c.Page != nil {
			page = *c.Page
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.EvidenceID, c.CaseID, c.Text, string(c.ChunkType), c.Position, page, c.CreatedAt); err != nil {
			return fmt.Errorf("chunkstore: save chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Delete removes chunk rows by ID. Missing IDs are silently ignored, same as
// the teacher's delete-by-ID conventions elsewhere in this repo.
func (s *Store) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("chunkstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("chunkstore: prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range chunkIDs {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("chunkstore: delete chunk %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// GetChunk resolves a chunk ID to its enrichment projection, satisfying
// retriever.ChunkLookup. The bool return is false for an unknown ID rather
// than an error, matching that interface's map-style contract.
func (s *Store) GetChunk(ctx context.Context, chunkID string) (domain.ChunkRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec domain.ChunkRecord
	var chunkType string
	var page sql.NullInt64
	row := s.db.QueryRowContext(ctx, `
		SELECT evidence_id, text, chunk_type, page FROM chunks WHERE id = ?`, chunkID)
	if err := row.Scan(&rec.EvidenceID, &rec.Text, &chunkType, &page); err != nil {
		return domain.ChunkRecord{}, false
	}
	rec.ChunkType = domain.ChunkType(chunkType)
	if page.Valid {
		p := int(page.Int64)
		rec.Page = &p
	}
	return rec, true
}

// AllIDsForEvidence lists every chunk ID derived from one evidence item, used
// to locate the vector/lexical entries a re-index or evidence deletion must
// also remove.
func (s *Store) AllIDsForEvidence(ctx context.Context, evidenceID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks WHERE evidence_id = ?`, evidenceID)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: list ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("chunkstore: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
