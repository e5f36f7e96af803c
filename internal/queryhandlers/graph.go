package queryhandlers

import (
	"context"

	"github.com/legalease-ai/evidence-core/internal/domain"
	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
	"github.com/legalease-ai/evidence-core/internal/metadata"
)

// QueryGraphQuery traverses the case-scoped knowledge graph from seed
// node(s), or from every node of EntityType absent seeds, up to MaxDepth
// hops, optionally filtered to one relationship type.
type QueryGraphQuery struct {
	CaseID      string
	SeedNodeIDs []string
	EntityType  domain.NodeType
	RelType     domain.RelationshipType
	MaxDepth    int
}

func (q QueryGraphQuery) Validate() error {
	if q.CaseID == "" {
		return &evidenceerrors.ValidationError{Field: "case_id", Message: "case_id is required"}
	}
	return nil
}

// QueryGraphResult is the traversed subgraph.
type QueryGraphResult struct {
	Nodes         []*domain.GraphNode
	Relationships []*domain.GraphRelationship
}

func (d Deps) handleQueryGraph(ctx context.Context, q QueryGraphQuery) (QueryGraphResult, error) {
	nodes, rels, err := d.Store.QueryGraph(ctx, q.CaseID, metadata.QueryGraphOptions{
		SeedNodeIDs: q.SeedNodeIDs,
		EntityType:  q.EntityType,
		RelType:     q.RelType,
		MaxDepth:    q.MaxDepth,
	})
	if err != nil {
		return QueryGraphResult{}, err
	}
	return QueryGraphResult{Nodes: nodes, Relationships: rels}, nil
}
