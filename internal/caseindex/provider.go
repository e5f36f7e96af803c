// Package caseindex resolves a case ID to its hybrid retriever Engine,
// lazily provisioning and caching the underlying CaseIndex (C2/C3 storage)
// per case directory on first use. It is the seam orchestrator.Activities
// and queryhandlers.Deps both depend on without either owning index
// lifecycle directly, generalized from the teacher's in-process project
// registry that kept one open index set per working directory for the
// life of the server.
package caseindex

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/legalease-ai/evidence-core/internal/indexlifecycle"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

// Provider lazily builds and caches one retriever.Engine per case and
// collection, backed by a CaseIndex rooted at dataDir/<caseID>.
type Provider struct {
	dataDir       string
	dimensions    int
	vectorBackend string
	qdrantDSN     string
	embedder      retriever.Embedder
	lookup        retriever.ChunkLookup

	mu      sync.Mutex
	cases   map[string]map[indexlifecycle.Collection]*indexlifecycle.CaseIndex
	engines map[string]map[indexlifecycle.Collection]*retriever.Engine
}

// New builds a Provider rooted at dataDir. embedder and lookup are shared
// across every case's retriever.Engine; lookup is typically nil here since
// each CaseIndex carries its own chunkstore.Store, which already satisfies
// retriever.ChunkLookup.
func New(dataDir string, dimensions int, vectorBackend, qdrantDSN string, embedder retriever.Embedder) *Provider {
	return &Provider{
		dataDir:       dataDir,
		dimensions:    dimensions,
		vectorBackend: vectorBackend,
		qdrantDSN:     qdrantDSN,
		embedder:      embedder,
		cases:         make(map[string]map[indexlifecycle.Collection]*indexlifecycle.CaseIndex),
		engines:       make(map[string]map[indexlifecycle.Collection]*retriever.Engine),
	}
}

// CaseIndexFor resolves caseID+collection to its CaseIndex, provisioning
// the case's on-disk stores on first reference. Exported for C0 intake,
// which writes chunks directly through dualwrite.Writer rather than
// through a retriever.Engine.
func (p *Provider) CaseIndexFor(ctx context.Context, caseID string, collection indexlifecycle.Collection) (*indexlifecycle.CaseIndex, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.caseIndexForLocked(ctx, caseID, collection)
}

func (p *Provider) caseIndexForLocked(ctx context.Context, caseID string, collection indexlifecycle.Collection) (*indexlifecycle.CaseIndex, error) {
	indexes, ok := p.cases[caseID]
	if !ok {
		mgr := indexlifecycle.NewManager(filepath.Join(p.dataDir, caseID), p.dimensions, p.vectorBackend, p.qdrantDSN)
		built, err := mgr.CreateAll(ctx, false)
		if err != nil {
			return nil, fmt.Errorf("caseindex: provision case %s: %w", caseID, err)
		}
		indexes = built
		p.cases[caseID] = indexes
		p.engines[caseID] = make(map[indexlifecycle.Collection]*retriever.Engine)
	}

	idx, ok := indexes[collection]
	if !ok {
		return nil, fmt.Errorf("caseindex: case %s has no %s collection", caseID, collection)
	}
	return idx, nil
}

// engineFor resolves caseID+collection to a cached retriever.Engine,
// provisioning the case's on-disk stores on first reference.
func (p *Provider) engineFor(ctx context.Context, caseID string, collection indexlifecycle.Collection) (*retriever.Engine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if byCol, ok := p.engines[caseID]; ok {
		if eng, ok := byCol[collection]; ok {
			return eng, nil
		}
	}

	idx, err := p.caseIndexForLocked(ctx, caseID, collection)
	if err != nil {
		return nil, err
	}

	lookup := p.lookup
	if lookup == nil {
		lookup = idx.Chunks
	}
	eng := retriever.New(idx, p.embedder, lookup)
	p.engines[caseID][collection] = eng
	return eng, nil
}

// Close releases every provisioned case's stores. Intended for orderly
// shutdown of long-running processes (cmd/evidence-core serve).
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, indexes := range p.cases {
		for _, idx := range indexes {
			if err := idx.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ForOrchestrator adapts Provider to orchestrator.RetrieverProvider, whose
// Engine method is scoped by the typed indexlifecycle.Collection.
func (p *Provider) ForOrchestrator() OrchestratorView { return OrchestratorView{p} }

// ForQueryHandlers adapts Provider to queryhandlers.RetrieverProvider,
// whose Engine method is scoped by a plain string for wire-friendliness.
func (p *Provider) ForQueryHandlers() QueryHandlerView { return QueryHandlerView{p} }

// OrchestratorView satisfies orchestrator.RetrieverProvider.
type OrchestratorView struct{ p *Provider }

// Engine resolves caseID+collection to a retriever.Engine for the
// orchestrator's analysis activities.
func (v OrchestratorView) Engine(ctx context.Context, caseID string, collection indexlifecycle.Collection) (*retriever.Engine, error) {
	return v.p.engineFor(ctx, caseID, collection)
}

// QueryHandlerView satisfies queryhandlers.RetrieverProvider.
type QueryHandlerView struct{ p *Provider }

// Engine resolves caseID+collection to a retriever.Engine for C5's search
// handler; collection is validated against the known collection names.
func (v QueryHandlerView) Engine(ctx context.Context, caseID string, collection string) (*retriever.Engine, error) {
	col := indexlifecycle.Collection(collection)
	valid := false
	for _, c := range indexlifecycle.AllCollections {
		if c == col {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("caseindex: unknown collection %q", collection)
	}
	return v.p.engineFor(ctx, caseID, col)
}
