// Package metadata implements the relational system of record: Case,
// Evidence, Research Run, Finding, knowledge-graph Node/Relationship,
// Timeline Event, and Dossier, generalized from the teacher's
// internal/store.MetadataStore interface (Project/File/Chunk renamed to
// Case/Evidence/Finding) and backed by the same dual SQLite driver pair
// (modernc.org/sqlite pure-Go primary, mattn/go-sqlite3 CGO driver
// available for the test build that needs it).
package metadata

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
)

// Store is the case-evidence relational system of record. One Store
// instance per case database, same as the teacher's one-SQLite-file-per-
// project convention.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path, applying the
// teacher's WAL-mode/busy-timeout pragma set for concurrent access. path=""
// opens a private in-memory database, used by tests.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("metadata: create directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("metadata: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("metadata: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection so collaborators sharing this same
// SQLite file (the telemetry store's query-metrics tables) can apply their
// own schema against it without Store opening a second handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func marshalJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func unmarshalJSON(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}

// wrapNotFound converts sql.ErrNoRows into the closed error taxonomy's
// NotFoundError, the shape query handlers and tests match on with errors.As.
func wrapNotFound(err error, kind, id string) error {
	if err == sql.ErrNoRows {
		return &evidenceerrors.NotFoundError{Kind: kind, ID: id}
	}
	return err
}
