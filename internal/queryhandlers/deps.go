// Package queryhandlers implements C5: the read-side handlers registered
// against the Query Bus (C4), each validating its own input and delegating
// to the Hybrid Retriever (C3) or the relational metadata store for its
// answer.
package queryhandlers

import (
	"context"

	"github.com/legalease-ai/evidence-core/internal/metadata"
	"github.com/legalease-ai/evidence-core/internal/querybus"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

// RetrieverProvider resolves the case-scoped retrieval Engine for
// SearchEvidence. One Engine is built per case's CaseIndex (§C3); the
// provider is the seam query handlers use to obtain it without owning
// index lifecycle themselves.
type RetrieverProvider interface {
	Engine(ctx context.Context, caseID string, collection string) (*retriever.Engine, error)
}

// LiveStatusProvider reports a running research run's live phase progress,
// if the workflow engine (C6) has a more precise number than the static
// phase map. Returning (0, false) falls back to domain.ResearchRun's own
// phase-map computation.
type LiveStatusProvider interface {
	LiveProgress(ctx context.Context, runID string) (pct float64, ok bool)
}

// Deps bundles every collaborator C5's handlers are registered against.
type Deps struct {
	Store    *metadata.Store
	Retrieve RetrieverProvider
	Live     LiveStatusProvider
}

// RegisterAll registers every C5 handler on bus.
func RegisterAll(bus *querybus.Bus, deps Deps) {
	querybus.Register(bus, deps.handleSearchEvidence)
	querybus.Register(bus, deps.handleGetFindings)
	querybus.Register(bus, deps.handleGetResearchStatus)
	querybus.Register(bus, deps.handleQueryGraph)
	querybus.Register(bus, deps.handleGetTimeline)
	querybus.Register(bus, deps.handleGetDossier)
	querybus.Register(bus, deps.handleListResearchRuns)
}
