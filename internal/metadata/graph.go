package metadata

import (
	"context"
	"fmt"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// SaveGraphNodes batch-upserts knowledge-graph nodes built by C7.
func (s *Store) SaveGraphNodes(ctx context.Context, nodes []*domain.GraphNode) error {
	if len(nodes) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metadata: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO graph_nodes (id, case_id, type, label, properties_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET label=excluded.label, properties_json=excluded.properties_json`)
	if err != nil {
		return fmt.Errorf("metadata: prepare node insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx, n.ID, n.CaseID, n.Type, n.Label, marshalJSON(n.Properties)); err != nil {
			return fmt.Errorf("metadata: insert node %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// SaveGraphRelationships batch-upserts knowledge-graph edges built by C7.
func (s *Store) SaveGraphRelationships(ctx context.Context, rels []*domain.GraphRelationship) error {
	if len(rels) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metadata: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO graph_relationships (id, case_id, source_id, target_id, type, properties_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET properties_json=excluded.properties_json`)
	if err != nil {
		return fmt.Errorf("metadata: prepare relationship insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rels {
		if _, err := stmt.ExecContext(ctx, r.ID, r.CaseID, r.SourceID, r.TargetID, r.Type, marshalJSON(r.Properties)); err != nil {
			return fmt.Errorf("metadata: insert relationship %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func scanNode(row scannable) (*domain.GraphNode, error) {
	var n domain.GraphNode
	var propsJSON string
	if err := row.Scan(&n.ID, &n.CaseID, &n.Type, &n.Label, &propsJSON); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(propsJSON, &n.Properties); err != nil {
		return nil, fmt.Errorf("metadata: decode node properties: %w", err)
	}
	return &n, nil
}

// FindNodeByLabel looks up a node by its case-scoped canonical label, the
// dedup lookup C7's graph builder runs before creating a new node.
func (s *Store) FindNodeByLabel(ctx context.Context, caseID string, canonicalLabel string) (*domain.GraphNode, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, case_id, type, label, properties_json FROM graph_nodes
		WHERE case_id = ? AND lower(trim(label)) = ?`, caseID, canonicalLabel)
	n, err := scanNode(row)
	if err != nil {
		return nil, false, nil
	}
	return n, true, nil
}

// QueryGraphOptions bounds a graph traversal from one or more seed nodes.
type QueryGraphOptions struct {
	SeedNodeIDs []string
	EntityType  domain.NodeType
	RelType     domain.RelationshipType
	MaxDepth    int
}

// QueryGraph traverses the case-scoped graph breadth-first from the given
// seed nodes (or, absent seeds, from every node matching EntityType) up to
// MaxDepth hops, filtering edges by RelType when set — the traversal
// GetTimeline's sibling query handler, QueryGraph, needs.
func (s *Store) QueryGraph(ctx context.Context, caseID string, opts QueryGraphOptions) ([]*domain.GraphNode, []*domain.GraphRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 2
	}

	seeds := opts.SeedNodeIDs
	if len(seeds) == 0 {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id FROM graph_nodes WHERE case_id = ? AND (? = '' OR type = ?)`,
			caseID, string(opts.EntityType), string(opts.EntityType))
		if err != nil {
			return nil, nil, fmt.Errorf("metadata: seed node query: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, nil, err
			}
			seeds = append(seeds, id)
		}
		rows.Close()
	}

	visitedNodes := map[string]*domain.GraphNode{}
	visitedRels := map[string]*domain.GraphRelationship{}
	frontier := seeds

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			if _, ok := visitedNodes[id]; !ok {
				if n, err := s.getNodeLocked(ctx, id); err == nil {
					visitedNodes[id] = n
				}
			}
			rels, err := s.edgesFromLocked(ctx, caseID, id, opts.RelType)
			if err != nil {
				return nil, nil, err
			}
			for _, r := range rels {
				if _, ok := visitedRels[r.ID]; ok {
					continue
				}
				visitedRels[r.ID] = r
				other := r.TargetID
				if other == id {
					other = r.SourceID
				}
				if _, ok := visitedNodes[other]; !ok {
					next = append(next, other)
				}
			}
		}
		frontier = next
	}

	nodes := make([]*domain.GraphNode, 0, len(visitedNodes))
	for _, n := range visitedNodes {
		nodes = append(nodes, n)
	}
	rels := make([]*domain.GraphRelationship, 0, len(visitedRels))
	for _, r := range visitedRels {
		rels = append(rels, r)
	}
	return nodes, rels, nil
}

func (s *Store) getNodeLocked(ctx context.Context, id string) (*domain.GraphNode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, case_id, type, label, properties_json FROM graph_nodes WHERE id = ?`, id)
	return scanNode(row)
}

func (s *Store) edgesFromLocked(ctx context.Context, caseID, nodeID string, relType domain.RelationshipType) ([]*domain.GraphRelationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, source_id, target_id, type, properties_json FROM graph_relationships
		WHERE case_id = ? AND (source_id = ? OR target_id = ?) AND (? = '' OR type = ?)`,
		caseID, nodeID, nodeID, string(relType), string(relType))
	if err != nil {
		return nil, fmt.Errorf("metadata: edge query: %w", err)
	}
	defer rows.Close()

	var out []*domain.GraphRelationship
	for rows.Next() {
		var r domain.GraphRelationship
		var propsJSON string
		if err := rows.Scan(&r.ID, &r.CaseID, &r.SourceID, &r.TargetID, &r.Type, &propsJSON); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(propsJSON, &r.Properties); err != nil {
			return nil, fmt.Errorf("metadata: decode relationship properties: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
