package lexstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
)

// textField is the mapped field every indexed document's text lives in.
const textField = "text"

// bleveDocument is the shape indexed into bleve: only the chunk text. The
// document ID is the chunk ID; case, evidence and timestamp metadata are not
// stored in the lexical index.
type bleveDocument struct {
	Text string `json:"text"`
}

// BleveStore implements Store over a blevesearch/bleve/v2 index. The index
// mapping (including the legal/shingle/citation analyzers of C8) is built
// by the caller and passed in, so this type stays agnostic of analyzer
// details and is reusable across the four evidence-type collections.
type BleveStore struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// Open opens (or creates) a bleve index at path using indexMapping. An empty
// path creates an in-memory index, used by tests.
func Open(path string, indexMapping *mapping.IndexMappingImpl) (*BleveStore, error) {
	var idx bleve.Index
	var err error

	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("lexstore: create index directory: %w", err)
		}
		if validateErr := validateIntegrity(path); validateErr != nil {
			slog.Warn("lexstore index corrupted, recreating", slog.String("path", path), slog.String("error", validateErr.Error()))
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, fmt.Errorf("lexstore: index corrupted and cannot remove: %w", rmErr)
			}
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("lexstore index open failed, recreating", slog.String("path", path), slog.String("error", err.Error()))
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, fmt.Errorf("lexstore: index corrupted, cannot clear: %w", rmErr)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("lexstore: open/create index: %w", err)
	}

	return &BleveStore{index: idx, path: path}, nil
}

func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing")
	}
	if err != nil {
		return fmt.Errorf("stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json empty")
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("read index_meta.json: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json unparseable: %w", err)
	}
	return nil
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected end of JSON") ||
		strings.Contains(s, "error parsing mapping JSON") ||
		strings.Contains(s, "failed to load segment") ||
		strings.Contains(s, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

func (b *BleveStore) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("lexstore: index is closed")
	}

	batch := b.index.NewBatch()
	for _, d := range docs {
		if err := batch.Index(d.ID, bleveDocument{Text: d.Text}); err != nil {
			return fmt.Errorf("lexstore: index document %s: %w", d.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("lexstore: execute batch: %w", err)
	}
	return nil
}

func (b *BleveStore) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("lexstore: index is closed")
	}
	if strings.TrimSpace(query) == "" {
		return []Result{}, nil
	}

	match := bleve.NewMatchQuery(query)
	match.SetField(textField)

	req := bleve.NewSearchRequest(match)
	req.Size = limit
	req.IncludeLocations = true

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexstore: search: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, Result{
			DocID:        hit.ID,
			Score:        hit.Score,
			MatchedTerms: matchedTerms(hit),
		})
	}
	return results, nil
}

func matchedTerms(hit *search.DocumentMatch) []string {
	seen := map[string]struct{}{}
	for field, locs := range hit.Locations {
		if field != textField {
			continue
		}
		for term := range locs {
			seen[term] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	return terms
}

func (b *BleveStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("lexstore: index is closed")
	}
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return b.index.Batch(batch)
}

func (b *BleveStore) AllIDs(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("lexstore: index is closed")
	}
	count, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("lexstore: doc count: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = []string{}
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexstore: all ids scan: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func (b *BleveStore) Stats(ctx context.Context) (Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return Stats{}, fmt.Errorf("lexstore: index is closed")
	}
	count, err := b.index.DocCount()
	if err != nil {
		return Stats{}, fmt.Errorf("lexstore: doc count: %w", err)
	}
	var size int64
	if b.path != "" {
		_ = filepath.Walk(b.path, func(p string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				size += info.Size()
			}
			return nil
		})
	}
	return Stats{DocumentCount: int(count), SizeBytes: size}, nil
}

func (b *BleveStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}
