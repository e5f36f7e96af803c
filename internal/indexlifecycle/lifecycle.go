package indexlifecycle

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/legalease-ai/evidence-core/internal/chunkstore"
	"github.com/legalease-ai/evidence-core/internal/lexstore"
	"github.com/legalease-ai/evidence-core/internal/vectorstore"
)

// Collection names the four evidence-type collections every case maintains
// a dual store for.
type Collection string

const (
	CollectionDocuments      Collection = "documents"
	CollectionTranscripts    Collection = "transcripts"
	CollectionCommunications Collection = "communications"
	CollectionFindings       Collection = "findings"
)

// AllCollections lists every collection a case index must provision.
var AllCollections = []Collection{
	CollectionDocuments,
	CollectionTranscripts,
	CollectionCommunications,
	CollectionFindings,
}

// CaseIndex bundles the lexical, vector, and chunk-lookup stores for one
// collection within one case. The dual-store writer (C2) and hybrid
// retriever (C3) both operate against a CaseIndex rather than the
// individual stores directly.
type CaseIndex struct {
	Collection Collection
	Lexical    lexstore.Store
	Vectors    *vectorstore.Spaces
	Chunks     *chunkstore.Store
}

// Close releases every store the CaseIndex holds. A failure on one store
// does not prevent the others from being closed; the first error seen is
// returned.
func (idx *CaseIndex) Close() error {
	var firstErr error
	if err := idx.Lexical.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := idx.Vectors.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if idx.Chunks != nil {
		if err := idx.Chunks.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Health reports a single collection's index state for the dossier and CLI
// status surfaces.
type Health struct {
	Collection    Collection
	DocumentCount int
	SizeBytes     int64
	VectorCount   int
}

// Manager creates and health-checks the per-case, per-collection indexes.
// It owns analyzer setup (custom filters and tokenizer are registered at
// package init; NewIndexMapping builds the mapping) so C2/C3 never construct
// a bleve mapping themselves.
type Manager struct {
	caseDir       string
	dimensions    int
	vectorBackend string // "hnsw" or "qdrant"
	qdrantDSN     string
}

// NewManager builds a lifecycle manager rooted at caseDir, the on-disk
// directory holding one case's indexes
// (caseDir/<collection>/{lexical,vectors}).
func NewManager(caseDir string, dimensions int, vectorBackend, qdrantDSN string) *Manager {
	return &Manager{
		caseDir:       caseDir,
		dimensions:    dimensions,
		vectorBackend: vectorBackend,
		qdrantDSN:     qdrantDSN,
	}
}

// CreateAll provisions every collection's dual store. If recreate is true,
// any existing on-disk index is wiped and rebuilt from an empty state
// first; callers are expected to re-index evidence afterward.
func (m *Manager) CreateAll(ctx context.Context, recreate bool) (map[Collection]*CaseIndex, error) {
	indexes := make(map[Collection]*CaseIndex, len(AllCollections))
	for _, col := range AllCollections {
		idx, err := m.create(ctx, col, recreate)
		if err != nil {
			for _, built := range indexes {
				_ = built.Close()
			}
			return nil, fmt.Errorf("indexlifecycle: create %s: %w", col, err)
		}
		indexes[col] = idx
	}
	return indexes, nil
}

func (m *Manager) create(ctx context.Context, col Collection, recreate bool) (*CaseIndex, error) {
	lexPath := filepath.Join(m.caseDir, string(col), "lexical")
	if recreate {
		lexPath = "" // an empty path forces an in-memory rebuild target; caller re-indexes
	}

	im, err := NewIndexMapping()
	if err != nil {
		return nil, err
	}
	lex, err := lexstore.Open(lexPath, im)
	if err != nil {
		return nil, fmt.Errorf("open lexical store: %w", err)
	}

	spaces, err := m.openVectorSpaces(ctx, col)
	if err != nil {
		_ = lex.Close()
		return nil, fmt.Errorf("open vector spaces: %w", err)
	}

	chunkPath := filepath.Join(m.caseDir, string(col), "chunks.db")
	if recreate {
		chunkPath = ""
	}
	chunks, err := chunkstore.Open(chunkPath)
	if err != nil {
		_ = lex.Close()
		_ = spaces.Close()
		return nil, fmt.Errorf("open chunk store: %w", err)
	}

	return &CaseIndex{Collection: col, Lexical: lex, Vectors: spaces, Chunks: chunks}, nil
}

func (m *Manager) openVectorSpaces(ctx context.Context, col Collection) (*vectorstore.Spaces, error) {
	cfg := vectorstore.DefaultConfig(m.dimensions)
	spaces := &vectorstore.Spaces{}

	named := []struct {
		space vectorstore.Space
		dst   *vectorstore.Store
	}{
		{vectorstore.SpaceSummary, &spaces.Summary},
		{vectorstore.SpaceSection, &spaces.Section},
		{vectorstore.SpaceMicroblock, &spaces.Microblock},
	}

	for _, n := range named {
		store, err := m.openVectorStore(ctx, col, n.space, cfg)
		if err != nil {
			return nil, err
		}
		*n.dst = store
	}
	return spaces, nil
}

func (m *Manager) openVectorStore(ctx context.Context, col Collection, space vectorstore.Space, cfg vectorstore.Config) (vectorstore.Store, error) {
	switch m.vectorBackend {
	case "qdrant":
		collection := fmt.Sprintf("%s_%s", col, space)
		return vectorstore.NewQdrantStore(ctx, m.qdrantDSN, collection, cfg)
	default:
		return vectorstore.NewHNSWStore(cfg)
	}
}

// HealthAll reports the current state of every collection's dual store.
func HealthAll(ctx context.Context, indexes map[Collection]*CaseIndex) ([]Health, error) {
	out := make([]Health, 0, len(indexes))
	for _, col := range AllCollections {
		idx, ok := indexes[col]
		if !ok {
			continue
		}
		h, err := health(ctx, idx)
		if err != nil {
			return nil, fmt.Errorf("indexlifecycle: health %s: %w", col, err)
		}
		out = append(out, h)
	}
	return out, nil
}

func health(ctx context.Context, idx *CaseIndex) (Health, error) {
	stats, err := idx.Lexical.Stats(ctx)
	if err != nil {
		return Health{}, err
	}
	vectorCount, err := idx.Vectors.Summary.Count(ctx)
	if err != nil {
		return Health{}, err
	}
	return Health{
		Collection:    idx.Collection,
		DocumentCount: stats.DocumentCount,
		SizeBytes:     stats.SizeBytes,
		VectorCount:   vectorCount,
	}, nil
}
